package catalogdb

import "context"

// FakeRepository is a fake implementation of Repository for testing.
type FakeRepository struct {
	ListActiveAreasFn      func(ctx context.Context) ([]Area, error)
	ListActiveLevelsFn     func(ctx context.Context) ([]Level, error)
	ListActiveCategoriesFn func(ctx context.Context) ([]Category, error)
}

func (f *FakeRepository) ListActiveAreas(ctx context.Context) ([]Area, error) {
	if f.ListActiveAreasFn != nil {
		return f.ListActiveAreasFn(ctx)
	}
	return nil, nil
}

func (f *FakeRepository) ListActiveLevels(ctx context.Context) ([]Level, error) {
	if f.ListActiveLevelsFn != nil {
		return f.ListActiveLevelsFn(ctx)
	}
	return nil, nil
}

func (f *FakeRepository) ListActiveCategories(ctx context.Context) ([]Category, error) {
	if f.ListActiveCategoriesFn != nil {
		return f.ListActiveCategoriesFn(ctx)
	}
	return nil, nil
}
