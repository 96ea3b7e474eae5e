package catalogmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating catalog tables...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS areas (
				id BIGSERIAL PRIMARY KEY,
				code TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL UNIQUE,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS levels (
				id BIGSERIAL PRIMARY KEY,
				code TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL UNIQUE,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS categories (
				id BIGSERIAL PRIMARY KEY,
				area_id BIGINT NOT NULL REFERENCES areas(id),
				level_id BIGINT NOT NULL REFERENCES levels(id),
				modality TEXT NOT NULL,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE(area_id, level_id, modality)
			);
		`)
		if err != nil {
			return fmt.Errorf("failed to create catalog tables: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS categories;
			DROP TABLE IF EXISTS levels;
			DROP TABLE IF EXISTS areas;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop catalog tables: %w", err)
		}
		return nil
	})
}
