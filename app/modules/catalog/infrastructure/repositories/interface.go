package catalogdb

import "context"

// Repository is the read-only catalog store consumed by the cache. The
// enrollment pipeline never writes areas, levels or categories.
type Repository interface {
	ListActiveAreas(ctx context.Context) ([]Area, error)
	ListActiveLevels(ctx context.Context) ([]Level, error)
	ListActiveCategories(ctx context.Context) ([]Category, error)
}
