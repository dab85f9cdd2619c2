package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/moneta/moneta/moneta/storage"
	"github.com/moneta/moneta/moneta/storage/sqlbuilder"
)

type Adapter struct {
	SourceName string
	DSN        string
	Schema     string // optional; pinned first on search_path
	Pool       storage.Pool
}

func New(name, dsn, schema string) *Adapter {
	return &Adapter{SourceName: name, DSN: dsn, Schema: schema}
}

func (a *Adapter) Backend() storage.Backend { return storage.BackendPostgres }

func (a *Adapter) PlaceholderStyle() sqlbuilder.PlaceholderStyle { return sqlbuilder.PlaceholderDollar }

func (a *Adapter) Name() string { return a.SourceName }

func (a *Adapter) Close() error { return nil }

var schemaNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ConnConfig parses the DSN and applies the schema to search_path.
func (a *Adapter) ConnConfig() (*pgx.ConnConfig, error) {
	cfg, err := pgx.ParseConfig(a.DSN)
	if err != nil {
		return nil, err
	}
	if a.Schema != "" {
		if !schemaNameRe.MatchString(a.Schema) {
			return nil, fmt.Errorf("invalid postgres schema name %q (must match %s)", a.Schema, schemaNameRe.String())
		}
		if cfg.RuntimeParams == nil {
			cfg.RuntimeParams = make(map[string]string)
		}
		// public stays as a fallback for built-ins; schema is first.
		cfg.RuntimeParams["search_path"] = fmt.Sprintf("%s,public", sqlbuilder.QuoteIdent(a.Schema))
	}
	return cfg, nil
}

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	cfg, err := a.ConnConfig()
	if err != nil {
		return nil, err
	}
	db := stdlib.OpenDB(*cfg)
	a.Pool.Apply(db)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
