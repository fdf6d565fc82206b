// Package codemaster wires the code store, resolver, validator and search
// index into one service and exposes it as MCP tools.
package codemaster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sha1n/mcp-codemaster-server/internal/codes"
	"github.com/sha1n/mcp-codemaster-server/internal/config"
	"github.com/sha1n/mcp-codemaster-server/internal/search"
	"github.com/sha1n/mcp-codemaster-server/internal/source"
	"github.com/sha1n/mcp-codemaster-server/internal/validation"
)

// ErrSearchDisabled is returned by Search when the index is turned off.
var ErrSearchDisabled = errors.New("search is disabled")

// Service owns the code data of the server.
type Service struct {
	settings  *config.CodesSettings
	source    source.Source
	store     *codes.Store
	resolver  *codes.Resolver
	registry  *codes.Registry
	validator *validation.Validator
	index     *search.Index
	logger    *slog.Logger

	mu         sync.RWMutex
	ready      bool
	lastReload time.Time
	lastErr    error
	reloads    int
}

// NewService opens the configured source and builds the service around it.
func NewService(ctx context.Context, settings *config.CodesSettings, logger *slog.Logger) (*Service, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	src, err := source.Open(ctx, settings.Source, settings.Path, settings.LoadTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open code source: %w", err)
	}
	svc, err := NewServiceWithSource(settings, src, logger)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	return svc, nil
}

// NewServiceWithSource builds the service over an already opened source.
func NewServiceWithSource(settings *config.CodesSettings, src source.Source, logger *slog.Logger) (*Service, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	mode, err := codes.ParseMode(settings.Mode)
	if err != nil {
		return nil, err
	}

	var resolverOpts []codes.ResolverOption
	if settings.DefaultLocale != "" {
		locale, err := codes.ParseLocale(settings.DefaultLocale)
		if err != nil {
			return nil, fmt.Errorf("invalid default locale %q: %w", settings.DefaultLocale, err)
		}
		resolverOpts = append(resolverOpts, codes.WithDefaultLocale(locale))
	}

	store := codes.NewStore(src, codes.WithMode(mode), codes.WithLogger(logger))
	resolver := codes.NewResolver(store, resolverOpts...)
	registry := codes.NewRegistry()
	registry.Register(codes.DefaultResolverName, resolver)

	svc := &Service{
		settings:  settings,
		source:    src,
		store:     store,
		resolver:  resolver,
		registry:  registry,
		validator: validation.NewValidator(resolver, ""),
		logger:    logger,
	}
	if settings.SearchEnabled {
		svc.index = search.NewIndex()
	}
	return svc, nil
}

// Initialize performs the first load. The service is ready once it succeeds.
func (s *Service) Initialize(ctx context.Context) error {
	loadCtx, cancel := context.WithTimeout(ctx, s.settings.LoadTimeout)
	defer cancel()

	if err := s.store.Open(loadCtx); err != nil {
		s.recordReload(err)
		return fmt.Errorf("failed to load codes: %w", err)
	}
	if err := s.rebuildIndex(loadCtx); err != nil {
		// Lookups work without the index
		s.logger.ErrorContext(ctx, "Failed to build search index", "error", err)
	}

	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	s.recordReload(nil)

	stats := s.store.Stats()
	s.logger.InfoContext(ctx, "Code service ready",
		"source", s.settings.Source,
		"path", s.settings.Path,
		"mode", stats.Mode,
		"generation", stats.Generation,
		"codesets", stats.Codesets,
		"default_locale", s.resolver.DefaultLocale().String())
	return nil
}

// Reload replaces the code data with a fresh load from the source. On failure
// the previous data keeps being served.
func (s *Service) Reload(ctx context.Context) error {
	loadCtx, cancel := context.WithTimeout(ctx, s.settings.LoadTimeout)
	defer cancel()

	if err := s.store.Reload(loadCtx); err != nil {
		s.recordReload(err)
		s.logger.ErrorContext(ctx, "Code reload failed", "error", err)
		return err
	}
	if err := s.rebuildIndex(loadCtx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to rebuild search index", "error", err)
	}

	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	s.recordReload(nil)
	return nil
}

// Run reloads the code data every ReloadInterval until ctx is done. It
// returns immediately when periodic reload is disabled.
func (s *Service) Run(ctx context.Context) {
	interval := s.settings.ReloadInterval
	if interval <= 0 {
		return
	}

	s.logger.InfoContext(ctx, "Periodic code reload enabled", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Reload(ctx)
		}
	}
}

// rebuildIndex indexes the current data. In lazy mode nothing is loaded yet,
// so the index is built from a full read of the source.
func (s *Service) rebuildIndex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}

	var sets []*codes.CodeSet
	if s.store.Mode() == codes.ModeEager {
		sets = s.store.Loaded()
	} else {
		rows, err := s.source.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to read codes for indexing: %w", err)
		}
		built, err := codes.BuildCodeSets(rows)
		if err != nil {
			return err
		}
		for _, cs := range built {
			sets = append(sets, cs)
		}
	}

	count, err := s.index.Rebuild(ctx, sets)
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "Search index rebuilt", "documents", count)
	return nil
}

func (s *Service) recordReload(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	if err == nil {
		s.lastReload = time.Now()
		s.reloads++
	}
}

// IsReady returns true once code data has been loaded.
func (s *Service) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Resolver returns the resolver registered under the default name.
func (s *Service) Resolver() (*codes.Resolver, error) {
	return s.registry.Resolver(codes.DefaultResolverName)
}

// Registry returns the resolver registry.
func (s *Service) Registry() *codes.Registry {
	return s.registry
}

// Validator returns the code validator.
func (s *Service) Validator() *validation.Validator {
	return s.validator
}

// Search queries the full-text index. A zero limit uses the configured maximum.
func (s *Service) Search(ctx context.Context, q search.Query) (*search.Result, error) {
	if s.index == nil {
		return nil, ErrSearchDisabled
	}
	if q.Limit <= 0 || q.Limit > s.settings.MaxResults {
		q.Limit = s.settings.MaxResults
	}
	return s.index.Search(ctx, q)
}

// Status describes the state of the service.
type Status struct {
	Ready            bool      `json:"ready"`
	Source           string    `json:"source"`
	Path             string    `json:"path"`
	Mode             string    `json:"mode"`
	DefaultLocale    string    `json:"default_locale"`
	Generation       string    `json:"generation"`
	LoadedAt         time.Time `json:"loaded_at"`
	Codesets         int       `json:"codesets"`
	AbsentCodesets   int       `json:"absent_codesets"`
	Loads            int64     `json:"loads"`
	Reloads          int       `json:"reloads"`
	LastReload       time.Time `json:"last_reload,omitzero"`
	LastError        string    `json:"last_error,omitempty"`
	SearchEnabled    bool      `json:"search_enabled"`
	IndexedDocuments uint64    `json:"indexed_documents"`
}

// Status returns a snapshot of the service state.
func (s *Service) Status() Status {
	stats := s.store.Stats()

	s.mu.RLock()
	defer s.mu.RUnlock()

	status := Status{
		Ready:          s.ready,
		Source:         s.settings.Source,
		Path:           s.settings.Path,
		Mode:           stats.Mode,
		DefaultLocale:  s.resolver.DefaultLocale().String(),
		Generation:     stats.Generation,
		LoadedAt:       stats.LoadedAt,
		Codesets:       stats.Codesets,
		AbsentCodesets: stats.Absent,
		Loads:          stats.Loads,
		Reloads:        s.reloads,
		LastReload:     s.lastReload,
		SearchEnabled:  s.index != nil,
	}
	if s.lastErr != nil {
		status.LastError = s.lastErr.Error()
	}
	if s.index != nil {
		status.IndexedDocuments = s.index.DocCount()
	}
	return status
}

// MaxResults returns the configured search result limit.
func (s *Service) MaxResults() int {
	return s.settings.MaxResults
}

// Close releases the index and the source.
func (s *Service) Close() error {
	s.mu.Lock()
	s.ready = false
	s.mu.Unlock()

	var errs []error
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close index: %w", err))
		}
	}
	if err := s.source.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close source: %w", err))
	}
	return errors.Join(errs...)
}
