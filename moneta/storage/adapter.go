package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/moneta/moneta/moneta/storage/sqlbuilder"
)

type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// ParseBackend accepts the configured backend name and its short aliases.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(s) {
	case "sqlite", "sqlite3":
		return BackendSQLite, nil
	case "postgres", "postgresql", "pg":
		return BackendPostgres, nil
	default:
		return "", fmt.Errorf("unknown backend %q", s)
	}
}

// Adapter abstracts how a data source is reached. The SQL moneta issues is the
// same for every backend apart from the placeholder style.
type Adapter interface {
	Backend() Backend
	PlaceholderStyle() sqlbuilder.PlaceholderStyle
	// Name identifies the data source in logs and health output.
	Name() string

	Connect(ctx context.Context) (*sql.DB, error)
	Close() error
}

// Pool settings applied to every opened *sql.DB. Zero values keep the
// database/sql defaults.
type Pool struct {
	MaxOpenConns int
	MaxIdleConns int
}

func (p Pool) Apply(db *sql.DB) {
	if p.MaxOpenConns > 0 {
		db.SetMaxOpenConns(p.MaxOpenConns)
	}
	if p.MaxIdleConns > 0 {
		db.SetMaxIdleConns(p.MaxIdleConns)
	}
}

// Spec describes one configured data source.
type Spec struct {
	Name    string
	Backend Backend
	DSN     string
	Driver  string // sqlite only: driver name override
	Schema  string // postgres only: search_path schema
	Pool    Pool
}
