package bundb

import (
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	catalogdb "github.com/oh-sansi/olympiad-backend/app/modules/catalog/infrastructure/repositories"
	enrollmentdb "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/infrastructure/repositories"
)

// NewBunDB opens the Postgres pool and returns a bun.DB with every model
// registered.
func NewBunDB(dsn string) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	db.RegisterModel(
		(*catalogdb.Area)(nil),
		(*catalogdb.Level)(nil),
		(*catalogdb.Category)(nil),
		(*enrollmentdb.Student)(nil),
		(*enrollmentdb.Tutor)(nil),
		(*enrollmentdb.Team)(nil),
		(*enrollmentdb.TeamMember)(nil),
		(*enrollmentdb.Participation)(nil),
	)

	return db, nil
}
