package codes

import (
	"errors"
	"slices"
	"testing"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	if _, err := registry.Resolver(DefaultResolverName); !errors.Is(err, ErrResolverNotRegistered) {
		t.Errorf("Expected ErrResolverNotRegistered, got %v", err)
	}

	resolver := newTestResolver(t)
	registry.Register(DefaultResolverName, resolver)
	registry.Register("archive", newTestResolver(t))

	got, err := registry.Resolver(DefaultResolverName)
	if err != nil {
		t.Fatalf("Resolver failed: %v", err)
	}
	if got != resolver {
		t.Error("Expected the registered resolver")
	}
	if !slices.Equal(registry.Names(), []string{"archive", "codeManager"}) {
		t.Errorf("Unexpected names: %v", registry.Names())
	}

	registry.Register("archive", nil)
	if _, err := registry.Resolver("archive"); !errors.Is(err, ErrResolverNotRegistered) {
		t.Errorf("Expected ErrResolverNotRegistered for a nil resolver, got %v", err)
	}
}
