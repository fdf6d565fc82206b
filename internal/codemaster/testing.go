package codemaster

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sha1n/mcp-codemaster-server/internal/config"
)

// SampleCodesYAML is a small code document used by tests in this and other
// packages.
const SampleCodesYAML = `codesets:
  "0001":
    patterns: [PATTERN1, PATTERN2, PATTERN3]
    values:
      - value: "01"
        patterns: [PATTERN1]
        names:
          - locale: en
            sort_order: 2
            name: Male
            short_name: M
            options: {OPTION01: 0001-01-en}
          - locale: ja
            sort_order: 1
            name: 男性
            short_name: 男
            options: {OPTION01: 0001-01-ja}
      - value: "02"
        patterns: [PATTERN1, PATTERN2]
        names:
          - locale: en
            sort_order: 1
            name: Female
            short_name: F
            options: {OPTION01: 0001-02-en}
          - locale: ja
            sort_order: 2
            name: 女性
            short_name: 女
            options: {OPTION01: 0001-02-ja}
  "0002":
    values:
      - value: "01"
        names:
          - locale: en
            sort_order: 1
            name: Initial State
            short_name: Initial
      - value: "02"
        names:
          - locale: en
            sort_order: 2
            name: Processing
            short_name: Busy
      - value: "03"
        names:
          - locale: en
            sort_order: 3
            name: Finished
            short_name: Done
`

// WriteSampleCodes writes SampleCodesYAML to a temporary file and returns its path.
func WriteSampleCodes(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codes.yaml")
	if err := os.WriteFile(path, []byte(SampleCodesYAML), 0644); err != nil {
		t.Fatalf("Failed to write sample codes: %v", err)
	}
	return path
}

// TestCodesSettings returns settings for a file source at path with the
// default locale pinned to en.
func TestCodesSettings(path string) *config.CodesSettings {
	return &config.CodesSettings{
		Source:        config.SourceFile,
		Path:          path,
		Mode:          "eager",
		DefaultLocale: "en",
		LoadTimeout:   10 * time.Second,
		SearchEnabled: true,
		MaxResults:    20,
	}
}

// NewTestService creates an initialized service over the sample codes. The
// service is closed when the test ends.
// This is exported for use in other packages' tests.
func NewTestService(t testing.TB, configure func(*config.CodesSettings)) *Service {
	t.Helper()
	settings := TestCodesSettings(WriteSampleCodes(t))
	if configure != nil {
		configure(settings)
	}

	svc, err := NewService(context.Background(), settings, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	t.Cleanup(func() {
		if err := svc.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})

	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return svc
}
