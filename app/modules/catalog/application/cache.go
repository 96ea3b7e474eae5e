package catalogservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	catalogdb "github.com/oh-sansi/olympiad-backend/app/modules/catalog/infrastructure/repositories"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a catalog snapshot stays fresh.
const DefaultTTL = 10 * time.Minute

// CategoryKey identifies one offered combination.
type CategoryKey struct {
	AreaID   int64
	LevelID  int64
	Modality string
}

// Snapshot is an immutable point-in-time view of the active catalog. Lookup
// keys are upper-cased; use the accessor methods rather than the maps.
type Snapshot struct {
	areaByCode  map[string]catalogdb.Area
	areaByName  map[string]catalogdb.Area
	levelByCode map[string]catalogdb.Level
	levelByName map[string]catalogdb.Level
	categories  map[CategoryKey]catalogdb.Category
	loadedAt    time.Time
}

// AreaByCode resolves an area by its code, case-insensitively.
func (s *Snapshot) AreaByCode(code string) (catalogdb.Area, bool) {
	a, ok := s.areaByCode[strings.ToUpper(strings.TrimSpace(code))]
	return a, ok
}

// AreaByName resolves an area by its display name, case-insensitively.
func (s *Snapshot) AreaByName(name string) (catalogdb.Area, bool) {
	a, ok := s.areaByName[strings.ToUpper(strings.TrimSpace(name))]
	return a, ok
}

// LevelByCode resolves a level by its code, case-insensitively.
func (s *Snapshot) LevelByCode(code string) (catalogdb.Level, bool) {
	l, ok := s.levelByCode[strings.ToUpper(strings.TrimSpace(code))]
	return l, ok
}

// LevelByName resolves a level by its display name, case-insensitively.
func (s *Snapshot) LevelByName(name string) (catalogdb.Level, bool) {
	l, ok := s.levelByName[strings.ToUpper(strings.TrimSpace(name))]
	return l, ok
}

// Category resolves an offered (area, level, modality) combination.
func (s *Snapshot) Category(areaID, levelID int64, modality string) (catalogdb.Category, bool) {
	c, ok := s.categories[CategoryKey{AreaID: areaID, LevelID: levelID, Modality: strings.ToUpper(modality)}]
	return c, ok
}

// LoadedAt reports when the snapshot was read from the store.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Cache serves catalog snapshots with TTL expiry. Concurrent callers during
// a miss share one in-flight refresh; a store failure propagates to every
// waiter instead of silently serving data older than the TTL.
type Cache struct {
	repo   catalogdb.Repository
	logger *slog.Logger
	ttl    time.Duration
	clock  func() time.Time

	mu       sync.RWMutex
	snapshot *Snapshot

	group singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the default snapshot TTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock injects the time source, used by tests to force expiry.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) { c.clock = clock }
}

// NewCache creates a catalog cache over the given repository.
func NewCache(repo catalogdb.Repository, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		repo:   repo,
		logger: logger,
		ttl:    DefaultTTL,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns a fresh snapshot, loading from the store on first use or
// after the TTL has elapsed.
func (c *Cache) Resolve(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	snap := c.snapshot
	c.mu.RUnlock()

	if snap != nil && c.clock().Sub(snap.loadedAt) < c.ttl {
		return snap, nil
	}

	v, err, _ := c.group.Do("catalog", func() (interface{}, error) {
		// Re-check under the flight: another caller may have refreshed
		// while this one was queued behind Do.
		c.mu.RLock()
		cur := c.snapshot
		c.mu.RUnlock()
		if cur != nil && c.clock().Sub(cur.loadedAt) < c.ttl {
			return cur, nil
		}

		fresh, err := c.load(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.snapshot = fresh
		c.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Invalidate drops the cached snapshot; the next Resolve hits the store.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.mu.Unlock()
	c.logger.Info("catalog cache invalidated")
}

func (c *Cache) load(ctx context.Context) (*Snapshot, error) {
	areas, err := c.repo.ListActiveAreas(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog refresh: %w", err)
	}
	levels, err := c.repo.ListActiveLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog refresh: %w", err)
	}
	categories, err := c.repo.ListActiveCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog refresh: %w", err)
	}

	snap := &Snapshot{
		areaByCode:  make(map[string]catalogdb.Area, len(areas)),
		areaByName:  make(map[string]catalogdb.Area, len(areas)),
		levelByCode: make(map[string]catalogdb.Level, len(levels)),
		levelByName: make(map[string]catalogdb.Level, len(levels)),
		categories:  make(map[CategoryKey]catalogdb.Category, len(categories)),
		loadedAt:    c.clock(),
	}
	for _, a := range areas {
		snap.areaByCode[strings.ToUpper(a.Code)] = a
		snap.areaByName[strings.ToUpper(a.Name)] = a
	}
	for _, l := range levels {
		snap.levelByCode[strings.ToUpper(l.Code)] = l
		snap.levelByName[strings.ToUpper(l.Name)] = l
	}
	for _, cat := range categories {
		key := CategoryKey{AreaID: cat.AreaID, LevelID: cat.LevelID, Modality: strings.ToUpper(cat.Modality)}
		snap.categories[key] = cat
	}

	c.logger.InfoContext(ctx, "catalog snapshot refreshed",
		slog.Int("areas", len(areas)),
		slog.Int("levels", len(levels)),
		slog.Int("categories", len(categories)),
	)
	return snap, nil
}
