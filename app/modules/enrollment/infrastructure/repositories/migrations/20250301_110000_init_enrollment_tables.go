package enrollmentmigrations

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
		fmt.Println("Creating enrollment tables...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS tutors (
				id BIGSERIAL PRIMARY KEY,
				doc_type TEXT NOT NULL,
				doc_number TEXT NOT NULL,
				names TEXT NOT NULL,
				surnames TEXT NOT NULL,
				phone TEXT,
				email TEXT,
				institution TEXT,
				profession TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE(doc_type, doc_number)
			);

			CREATE TABLE IF NOT EXISTS students (
				id BIGSERIAL PRIMARY KEY,
				doc_type TEXT NOT NULL,
				doc_number TEXT NOT NULL,
				names TEXT NOT NULL,
				surname1 TEXT NOT NULL,
				surname2 TEXT,
				institution TEXT NOT NULL,
				department TEXT,
				grade TEXT,
				birth_date TEXT,
				sex TEXT,
				email TEXT,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				tutor_id BIGINT REFERENCES tutors(id),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE(doc_type, doc_number)
			);

			CREATE UNIQUE INDEX IF NOT EXISTS students_email_unique
				ON students (LOWER(email)) WHERE email IS NOT NULL AND email <> '';

			CREATE TABLE IF NOT EXISTS teams (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS team_members (
				id BIGSERIAL PRIMARY KEY,
				team_id BIGINT NOT NULL REFERENCES teams(id),
				student_id BIGINT NOT NULL REFERENCES students(id),
				role TEXT NOT NULL,
				position INT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE(team_id, student_id)
			);

			CREATE TABLE IF NOT EXISTS participations (
				id BIGSERIAL PRIMARY KEY,
				student_id BIGINT REFERENCES students(id),
				team_id BIGINT REFERENCES teams(id),
				area_id BIGINT NOT NULL REFERENCES areas(id),
				level_id BIGINT NOT NULL REFERENCES levels(id),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				CHECK ((student_id IS NULL) <> (team_id IS NULL)),
				UNIQUE(student_id, area_id, level_id),
				UNIQUE(team_id, area_id, level_id)
			);
		`)
		if err != nil {
			return fmt.Errorf("failed to create enrollment tables: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS participations;
			DROP TABLE IF EXISTS team_members;
			DROP TABLE IF EXISTS teams;
			DROP TABLE IF EXISTS students;
			DROP TABLE IF EXISTS tutors;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop enrollment tables: %w", err)
		}
		return nil
	})
}
