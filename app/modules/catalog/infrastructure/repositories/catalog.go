package catalogdb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// CatalogDBImpl is the bun-backed catalog repository.
type CatalogDBImpl struct {
	DB *bun.DB
}

// ListActiveAreas returns every active area ordered by name.
func (db *CatalogDBImpl) ListActiveAreas(ctx context.Context) ([]Area, error) {
	var areas []Area
	err := db.DB.NewSelect().
		Model(&areas).
		Where("active = TRUE").
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active areas: %w", err)
	}
	return areas, nil
}

// ListActiveLevels returns every active level ordered by name.
func (db *CatalogDBImpl) ListActiveLevels(ctx context.Context) ([]Level, error) {
	var levels []Level
	err := db.DB.NewSelect().
		Model(&levels).
		Where("active = TRUE").
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active levels: %w", err)
	}
	return levels, nil
}

// ListActiveCategories returns every active (area, level, modality) combination.
func (db *CatalogDBImpl) ListActiveCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	err := db.DB.NewSelect().
		Model(&categories).
		Where("c.active = TRUE").
		Order("c.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active categories: %w", err)
	}
	return categories, nil
}
