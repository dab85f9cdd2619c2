package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/moneta/moneta/moneta/storage"
	"github.com/moneta/moneta/moneta/storage/sqlbuilder"
)

// Driver names registered by the two sqlite drivers moneta supports.
const (
	DriverModernc = "sqlite"  // modernc.org/sqlite, pure Go
	DriverCgo     = "sqlite3" // github.com/mattn/go-sqlite3
)

type Adapter struct {
	SourceName string
	Path       string
	DriverName string
	Pool       storage.Pool
}

func New(name, path string) *Adapter {
	return &Adapter{SourceName: name, Path: path, DriverName: DriverModernc}
}

func NewWithDriver(name, path, driver string) *Adapter {
	return &Adapter{SourceName: name, Path: path, DriverName: driver}
}

func (a *Adapter) Backend() storage.Backend {
	return storage.BackendSQLite
}

func (a *Adapter) PlaceholderStyle() sqlbuilder.PlaceholderStyle {
	return sqlbuilder.PlaceholderQuestion
}

func (a *Adapter) Name() string {
	return a.SourceName
}

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(a.DriverName, a.dsn())
	if err != nil {
		return nil, err
	}
	a.Pool.Apply(db)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// dsn appends a busy timeout in the parameter syntax of the selected driver.
func (a *Adapter) dsn() string {
	param := "_pragma=busy_timeout(5000)"
	if a.DriverName == DriverCgo {
		param = "_busy_timeout=5000"
	}
	if strings.Contains(a.Path, "?") {
		return a.Path + "&" + param
	}
	return a.Path + "?" + param
}

func (a *Adapter) Close() error {
	return nil
}
