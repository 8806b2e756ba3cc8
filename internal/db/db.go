package db

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// DB wraps *sql.DB so queries can be written once with $N placeholders
// and still run on sqlite.
type DB struct {
	*sql.DB
	Driver string
}

func Connect(driver, connString string) (*DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	sqlDB, err := sql.Open(driver, connString)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// один писатель; заодно держит :memory: базу живой между запросами
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &DB{DB: sqlDB, Driver: driver}, nil
}

var dollarParam = regexp.MustCompile(`\$(\d+)`)

// Rebind turns $1, $2 ... into ?1, ?2 ... for sqlite. Postgres queries pass through.
func (d *DB) Rebind(query string) string {
	if d.Driver != DriverSQLite {
		return query
	}
	return dollarParam.ReplaceAllString(query, "?$1")
}

func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.DB.ExecContext(ctx, d.Rebind(query), args...)
}

func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.DB.QueryContext(ctx, d.Rebind(query), args...)
}

func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.DB.QueryRowContext(ctx, d.Rebind(query), args...)
}
