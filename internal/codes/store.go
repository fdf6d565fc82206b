package codes

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Loader supplies raw code rows. Returning no rows for a codeset id is a
// valid result meaning the codeset does not exist.
type Loader interface {
	// Load returns the rows of a single codeset.
	Load(ctx context.Context, codesetID string) ([]Row, error)

	// LoadAll returns the rows of every codeset.
	LoadAll(ctx context.Context) ([]Row, error)
}

// Mode selects how a Store is populated.
type Mode int

const (
	// ModeEager loads every codeset in Open and Reload.
	ModeEager Mode = iota

	// ModeLazy loads a codeset on its first lookup.
	ModeLazy
)

// Mode names as used in configuration.
const (
	ModeNameEager = "eager"
	ModeNameLazy  = "lazy"
)

func (m Mode) String() string {
	switch m {
	case ModeEager:
		return ModeNameEager
	case ModeLazy:
		return ModeNameLazy
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ModeNameEager:
		return ModeEager, nil
	case ModeNameLazy:
		return ModeLazy, nil
	default:
		return 0, fmt.Errorf("unknown load mode %q (want %q or %q)", s, ModeNameEager, ModeNameLazy)
	}
}

// generation is one published mapping of codeset ids to code sets. A nil
// *CodeSet records a codeset the loader confirmed absent.
type generation struct {
	id       uuid.UUID
	loadedAt time.Time
	mu       sync.RWMutex
	sets     map[string]*CodeSet
	group    singleflight.Group
}

func newGeneration(sets map[string]*CodeSet) *generation {
	if sets == nil {
		sets = make(map[string]*CodeSet)
	}
	return &generation{
		id:       uuid.New(),
		loadedAt: time.Now(),
		sets:     sets,
	}
}

func (g *generation) lookup(id string) (cs *CodeSet, known bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	cs, known = g.sets[id]
	return cs, known
}

// Store caches code sets by codeset id.
type Store struct {
	loader   Loader
	mode     Mode
	logger   *slog.Logger
	current  atomic.Pointer[generation]
	reloadMu sync.Mutex
	loads    atomic.Int64
}

// Option configures a Store.
type Option func(*Store)

// WithMode sets the population mode. The default is ModeEager.
func WithMode(mode Mode) Option {
	return func(s *Store) {
		s.mode = mode
	}
}

// WithLogger sets the logger used for load and reload events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a store over the loader. The store starts empty; call
// Open before serving lookups in eager mode.
func NewStore(loader Loader, opts ...Option) *Store {
	s := &Store{
		loader: loader,
		mode:   ModeEager,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(newGeneration(nil))
	return s
}

// Mode returns the population mode.
func (s *Store) Mode() Mode {
	return s.mode
}

// Open performs the initial population.
func (s *Store) Open(ctx context.Context) error {
	if s.mode == ModeLazy {
		s.logger.InfoContext(ctx, "Code store opened", "mode", s.mode.String())
		return nil
	}
	return s.Reload(ctx)
}

// Reload replaces the whole mapping with a freshly built one. Readers see
// either the old or the new mapping, never a mix; on failure the old mapping
// stays in place.
func (s *Store) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	var sets map[string]*CodeSet
	if s.mode == ModeEager {
		s.loads.Add(1)
		rows, err := s.loader.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("%w: load all: %w", ErrLoadFailure, err)
		}
		sets, err = BuildCodeSets(rows)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLoadFailure, err)
		}
	}

	gen := newGeneration(sets)
	previous := s.current.Swap(gen)
	s.logger.InfoContext(ctx, "Code store reloaded",
		"mode", s.mode.String(),
		"generation", gen.id.String(),
		"previous_generation", previous.id.String(),
		"codesets", len(sets),
		"duration", time.Since(start))
	return nil
}

// Get returns the code set for the id. In lazy mode a miss triggers at most
// one concurrent load per id; callers for the same id wait for and share its
// result.
func (s *Store) Get(ctx context.Context, codesetID string) (*CodeSet, error) {
	gen := s.current.Load()
	if cs, known := gen.lookup(codesetID); known {
		return s.found(codesetID, cs)
	}
	if s.mode == ModeEager {
		return nil, unknownCodeset(codesetID)
	}

	v, err, _ := gen.group.Do(codesetID, func() (any, error) {
		return s.loadOne(ctx, gen, codesetID)
	})
	if err != nil {
		return nil, err
	}
	return s.found(codesetID, v.(*CodeSet))
}

// loadOne loads a single codeset into gen. The load runs detached from the
// caller's cancellation since other callers may be waiting on it.
func (s *Store) loadOne(ctx context.Context, gen *generation, codesetID string) (*CodeSet, error) {
	if cs, known := gen.lookup(codesetID); known {
		return cs, nil
	}

	s.loads.Add(1)
	rows, err := s.loader.Load(context.WithoutCancel(ctx), codesetID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Code load failed", "codeset", codesetID, "error", err)
		return nil, fmt.Errorf("%w: codeset %q: %w", ErrLoadFailure, codesetID, err)
	}

	var cs *CodeSet
	if len(rows) > 0 {
		cs, err = NewCodeSet(codesetID, rows)
		if err != nil {
			s.logger.ErrorContext(ctx, "Code build failed", "codeset", codesetID, "error", err)
			return nil, fmt.Errorf("%w: %w", ErrLoadFailure, err)
		}
	}

	gen.mu.Lock()
	gen.sets[codesetID] = cs
	gen.mu.Unlock()

	s.logger.DebugContext(ctx, "Codeset loaded", "codeset", codesetID, "rows", len(rows), "absent", cs == nil)
	return cs, nil
}

func (s *Store) found(codesetID string, cs *CodeSet) (*CodeSet, error) {
	if cs == nil {
		return nil, unknownCodeset(codesetID)
	}
	return cs, nil
}

func unknownCodeset(codesetID string) error {
	return &LookupError{Op: "get", CodesetID: codesetID, Err: ErrUnknownCodeset}
}

// Loaded returns the code sets of the current generation sorted by id.
func (s *Store) Loaded() []*CodeSet {
	gen := s.current.Load()
	gen.mu.RLock()
	defer gen.mu.RUnlock()

	sets := make([]*CodeSet, 0, len(gen.sets))
	for _, cs := range gen.sets {
		if cs != nil {
			sets = append(sets, cs)
		}
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].id < sets[j].id })
	return sets
}

// Stats describes the current state of a Store.
type Stats struct {
	Mode       string
	Generation string
	LoadedAt   time.Time
	Codesets   int
	Absent     int
	Loads      int64
}

// Stats returns a snapshot of the store state.
func (s *Store) Stats() Stats {
	gen := s.current.Load()
	gen.mu.RLock()
	defer gen.mu.RUnlock()

	stats := Stats{
		Mode:       s.mode.String(),
		Generation: gen.id.String(),
		LoadedAt:   gen.loadedAt,
		Loads:      s.loads.Load(),
	}
	for _, cs := range gen.sets {
		if cs == nil {
			stats.Absent++
		} else {
			stats.Codesets++
		}
	}
	return stats
}
