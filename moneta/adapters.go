package moneta

import (
	"fmt"

	"github.com/moneta/moneta/moneta/storage"
	"github.com/moneta/moneta/moneta/storage/postgres"
	"github.com/moneta/moneta/moneta/storage/sqlite"
)

// NewAdapter creates the storage adapter for a configured data source.
func NewAdapter(spec storage.Spec) (storage.Adapter, error) {
	switch spec.Backend {
	case storage.BackendPostgres:
		a := postgres.New(spec.Name, spec.DSN, spec.Schema)
		a.Pool = spec.Pool
		return a, nil
	case storage.BackendSQLite:
		driver := spec.Driver
		if driver == "" {
			driver = sqlite.DriverModernc
		}
		a := sqlite.NewWithDriver(spec.Name, spec.DSN, driver)
		a.Pool = spec.Pool
		return a, nil
	default:
		return nil, fmt.Errorf("data source %q: unknown backend %q", spec.Name, spec.Backend)
	}
}
