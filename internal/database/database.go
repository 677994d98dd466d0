// Package database provides helpers for connecting to PostgreSQL and running
// schema migrations. The returned *gorm.DB handle is constructed once at
// startup and passed down to middleware and handlers — there is no package
// level connection singleton.
package database

import (
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens a connection to the PostgreSQL database at the given DSN and
// returns the GORM handle used for all queries.
//
// TranslateError maps driver-specific failures onto GORM's portable errors,
// so handlers can match gorm.ErrDuplicatedKey when a unique constraint
// (username, email, team name, league name) is violated.
func Connect(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
}

// RunMigrations applies any pending "up" migrations from the migrations/
// directory. The migrate library records applied versions in the
// schema_migrations table, so reruns are no-ops.
func RunMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}
