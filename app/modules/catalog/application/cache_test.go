package catalogservice

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdb "github.com/oh-sansi/olympiad-backend/app/modules/catalog/infrastructure/repositories"
	"github.com/oh-sansi/olympiad-backend/internal/observability"
)

func countingRepo(calls *atomic.Int64) *catalogdb.FakeRepository {
	return &catalogdb.FakeRepository{
		ListActiveAreasFn: func(ctx context.Context) ([]catalogdb.Area, error) {
			calls.Add(1)
			return []catalogdb.Area{{ID: 1, Code: "MAT", Name: "Matemáticas", Active: true}}, nil
		},
		ListActiveLevelsFn: func(ctx context.Context) ([]catalogdb.Level, error) {
			return []catalogdb.Level{{ID: 10, Code: "PRI", Name: "Primaria", Active: true}}, nil
		},
		ListActiveCategoriesFn: func(ctx context.Context) ([]catalogdb.Category, error) {
			return []catalogdb.Category{{ID: 100, AreaID: 1, LevelID: 10, Modality: "INDIVIDUAL", Active: true}}, nil
		},
	}
}

func TestCache_ResolvesAndServesFromMemory(t *testing.T) {
	var calls atomic.Int64
	cache := NewCache(countingRepo(&calls), observability.NoOpLogger)

	snap, err := cache.Resolve(context.Background())
	require.NoError(t, err)

	area, ok := snap.AreaByCode("mat")
	require.True(t, ok)
	assert.Equal(t, int64(1), area.ID)

	_, ok = snap.AreaByName("  MATEMÁTICAS ")
	assert.True(t, ok)
	_, ok = snap.LevelByCode("PRI")
	assert.True(t, ok)
	_, ok = snap.Category(1, 10, "individual")
	assert.True(t, ok)
	_, ok = snap.Category(1, 10, "EQUIPO")
	assert.False(t, ok)

	again, err := cache.Resolve(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, again)
	assert.Equal(t, int64(1), calls.Load())
}

func TestCache_TTLExpiryReloads(t *testing.T) {
	var calls atomic.Int64
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	cache := NewCache(countingRepo(&calls), observability.NoOpLogger,
		WithTTL(time.Minute), WithClock(clock))

	first, err := cache.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now, first.LoadedAt())

	mu.Lock()
	now = now.Add(30 * time.Second)
	mu.Unlock()
	cached, err := cache.Resolve(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, cached)

	mu.Lock()
	now = now.Add(time.Minute)
	mu.Unlock()
	fresh, err := cache.Resolve(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)
	assert.Equal(t, int64(2), calls.Load())
}

func TestCache_InvalidateForcesReload(t *testing.T) {
	var calls atomic.Int64
	cache := NewCache(countingRepo(&calls), observability.NoOpLogger)

	_, err := cache.Resolve(context.Background())
	require.NoError(t, err)

	cache.Invalidate()

	_, err = cache.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestCache_ConcurrentMissLoadsOnce(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	repo := countingRepo(&calls)
	inner := repo.ListActiveAreasFn
	repo.ListActiveAreasFn = func(ctx context.Context) ([]catalogdb.Area, error) {
		<-release
		return inner(ctx)
	}

	cache := NewCache(repo, observability.NoOpLogger)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Resolve(context.Background())
			assert.NoError(t, err)
		}()
	}
	// give the goroutines time to pile up behind the flight
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
}

func TestCache_StoreFailurePropagates(t *testing.T) {
	boom := errors.New("connection refused")
	repo := &catalogdb.FakeRepository{
		ListActiveAreasFn: func(ctx context.Context) ([]catalogdb.Area, error) { return nil, boom },
	}
	cache := NewCache(repo, observability.NoOpLogger)

	_, err := cache.Resolve(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
