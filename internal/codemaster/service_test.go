package codemaster

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/sha1n/mcp-codemaster-server/internal/codes"
	"github.com/sha1n/mcp-codemaster-server/internal/config"
	"github.com/sha1n/mcp-codemaster-server/internal/search"
	"github.com/sha1n/mcp-codemaster-server/internal/validation"
	"golang.org/x/text/language"
)

func TestNewService_NilSettings(t *testing.T) {
	if _, err := NewService(context.Background(), nil, nil); err == nil {
		t.Fatal("Expected error for nil settings")
	}
}

func TestNewService_InvalidSettings(t *testing.T) {
	tests := []struct {
		name      string
		configure func(*config.CodesSettings)
	}{
		{"unknown source", func(s *config.CodesSettings) { s.Source = "redis" }},
		{"unknown mode", func(s *config.CodesSettings) { s.Mode = "sometimes" }},
		{"bad default locale", func(s *config.CodesSettings) { s.DefaultLocale = "not a locale" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := TestCodesSettings(WriteSampleCodes(t))
			tt.configure(settings)
			svc, err := NewService(context.Background(), settings, nil)
			if err == nil {
				_ = svc.Close()
				t.Fatal("Expected error")
			}
		})
	}
}

func TestService_NotReadyBeforeInitialize(t *testing.T) {
	settings := TestCodesSettings(WriteSampleCodes(t))
	svc, err := NewService(context.Background(), settings, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	defer func() { _ = svc.Close() }()

	if svc.IsReady() {
		t.Error("Expected service not to be ready before Initialize")
	}
	if svc.Status().Ready {
		t.Error("Expected status not ready")
	}
}

func TestService_InitializeFailure(t *testing.T) {
	settings := TestCodesSettings(WriteSampleCodes(t))
	settings.Path = settings.Path + ".missing"
	svc, err := NewService(context.Background(), settings, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	defer func() { _ = svc.Close() }()

	err = svc.Initialize(context.Background())
	if !errors.Is(err, codes.ErrLoadFailure) {
		t.Fatalf("Expected ErrLoadFailure, got %v", err)
	}
	if svc.IsReady() {
		t.Error("Expected service not ready after failed initialize")
	}
	if svc.Status().LastError == "" {
		t.Error("Expected last error in status")
	}
}

func TestService_Initialize(t *testing.T) {
	for _, mode := range []string{"eager", "lazy"} {
		t.Run(mode, func(t *testing.T) {
			svc := NewTestService(t, func(s *config.CodesSettings) { s.Mode = mode })

			if !svc.IsReady() {
				t.Fatal("Expected service to be ready")
			}
			resolver, err := svc.Resolver()
			if err != nil {
				t.Fatalf("Resolver failed: %v", err)
			}
			if resolver.DefaultLocale() != language.English {
				t.Errorf("Expected default locale en, got %s", resolver.DefaultLocale())
			}

			values, err := resolver.Values(context.Background(), "0001", language.Und)
			if err != nil {
				t.Fatalf("Values failed: %v", err)
			}
			if len(values) != 2 || values[0] != "02" || values[1] != "01" {
				t.Errorf("Expected [02 01], got %v", values)
			}

			st := svc.Status()
			if st.Mode != mode {
				t.Errorf("Expected mode %s, got %s", mode, st.Mode)
			}
			if st.IndexedDocuments != 7 {
				t.Errorf("Expected 7 indexed documents, got %d", st.IndexedDocuments)
			}
			if st.Generation == "" {
				t.Error("Expected generation id")
			}
		})
	}
}

func TestService_RegistryHasDefaultResolver(t *testing.T) {
	svc := NewTestService(t, nil)

	names := svc.Registry().Names()
	if len(names) != 1 || names[0] != codes.DefaultResolverName {
		t.Errorf("Expected [%s], got %v", codes.DefaultResolverName, names)
	}
}

func TestService_Validator(t *testing.T) {
	svc := NewTestService(t, nil)
	ctx := context.Background()

	result, err := svc.Validator().ValidateEach(ctx, validation.Rule{CodesetID: "0002"}, []string{"01", "09"})
	if err != nil {
		t.Fatalf("ValidateEach failed: %v", err)
	}
	if result.Valid {
		t.Fatal("Expected invalid result")
	}
	if result.AllowedValues != `"01" , "02" , "03"` {
		t.Errorf("Unexpected allowed values: %s", result.AllowedValues)
	}
	if result.MessageID != validation.DefaultMessageID {
		t.Errorf("Expected default message id, got %s", result.MessageID)
	}
}

func TestService_ReloadPicksUpChanges(t *testing.T) {
	svc := NewTestService(t, nil)
	ctx := context.Background()
	before := svc.Status().Generation

	updated := SampleCodesYAML + `  "0003":
    values:
      - value: "X"
        names:
          - locale: en
            sort_order: 1
            name: Extra
`
	if err := os.WriteFile(svc.settings.Path, []byte(updated), 0644); err != nil {
		t.Fatalf("Failed to update codes: %v", err)
	}

	if err := svc.Reload(ctx); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	st := svc.Status()
	if st.Generation == before {
		t.Error("Expected a new generation after reload")
	}
	if st.Codesets != 3 {
		t.Errorf("Expected 3 codesets, got %d", st.Codesets)
	}
	if st.Reloads != 2 {
		t.Errorf("Expected 2 successful loads, got %d", st.Reloads)
	}

	resolver, _ := svc.Resolver()
	name, err := resolver.Name(ctx, "0003", "X", language.Und)
	if err != nil || name != "Extra" {
		t.Errorf("Expected Extra, got %q (%v)", name, err)
	}

	result, err := svc.Search(ctx, search.Query{Text: "extra"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Total != 1 {
		t.Errorf("Expected 1 hit after reload, got %d", result.Total)
	}
}

func TestService_ReloadFailureKeepsData(t *testing.T) {
	svc := NewTestService(t, nil)
	ctx := context.Background()
	before := svc.Status().Generation

	if err := os.WriteFile(svc.settings.Path, []byte("codesets: [not, a, map"), 0644); err != nil {
		t.Fatalf("Failed to corrupt codes: %v", err)
	}

	if err := svc.Reload(ctx); err == nil {
		t.Fatal("Expected reload error")
	}

	st := svc.Status()
	if st.Generation != before {
		t.Error("Expected generation to be kept after failed reload")
	}
	if st.LastError == "" {
		t.Error("Expected last error in status")
	}
	if !st.Ready {
		t.Error("Expected service to stay ready")
	}

	resolver, _ := svc.Resolver()
	if ok, err := resolver.Contains(ctx, "0001", "01"); err != nil || !ok {
		t.Errorf("Expected old data to be served, got %v (%v)", ok, err)
	}
}

func TestService_SearchDisabled(t *testing.T) {
	svc := NewTestService(t, func(s *config.CodesSettings) { s.SearchEnabled = false })

	_, err := svc.Search(context.Background(), search.Query{Text: "male"})
	if !errors.Is(err, ErrSearchDisabled) {
		t.Errorf("Expected ErrSearchDisabled, got %v", err)
	}
	if svc.Status().SearchEnabled {
		t.Error("Expected search disabled in status")
	}
}

func TestService_SearchLimit(t *testing.T) {
	svc := NewTestService(t, func(s *config.CodesSettings) { s.MaxResults = 1 })

	result, err := svc.Search(context.Background(), search.Query{Text: "state processing finished", Limit: 50})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(result.Hits) != 1 {
		t.Errorf("Expected 1 hit, got %d", len(result.Hits))
	}
	if result.Total < 2 {
		t.Errorf("Expected total of at least 2, got %d", result.Total)
	}
}

func TestService_RunDisabled(t *testing.T) {
	svc := NewTestService(t, nil)

	done := make(chan struct{})
	go func() {
		svc.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return immediately when reload interval is 0")
	}
}

func TestService_RunReloadsPeriodically(t *testing.T) {
	svc := NewTestService(t, func(s *config.CodesSettings) { s.ReloadInterval = 10 * time.Millisecond })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for svc.Status().Reloads < 3 {
		select {
		case <-deadline:
			t.Fatalf("Expected periodic reloads, got %d", svc.Status().Reloads)
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
