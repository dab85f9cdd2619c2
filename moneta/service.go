package moneta

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/moneta/moneta/moneta/config"
	merrors "github.com/moneta/moneta/moneta/errors"
	"github.com/moneta/moneta/moneta/ops"
	"github.com/moneta/moneta/moneta/record"
	"github.com/moneta/moneta/moneta/request"
	"github.com/moneta/moneta/moneta/search"
	"github.com/moneta/moneta/moneta/storage"
	"github.com/moneta/moneta/moneta/topic"
)

// Options configures a Service
type Options struct {
	Logger         zerolog.Logger
	ConnectTimeout time.Duration // default 10s
}

func DefaultOptions() Options {
	return Options{
		Logger:         zerolog.Nop(),
		ConnectTimeout: 10 * time.Second,
	}
}

// SearchOptions configures one search
type SearchOptions struct {
	Explain bool
}

// Result is the outcome of one search.
type Result struct {
	Request      search.SearchRequest
	Records      []record.Record
	ExplainSQL   string
	ExplainSteps []string
}

// Service answers topic searches over the configured data sources. It is
// safe for concurrent use.
type Service struct {
	registry *topic.Registry
	builder  *request.Builder
	sources  map[string]*dataSource
	logger   zerolog.Logger
}

type dataSource struct {
	adapter storage.Adapter
	db      *sql.DB
}

// Open builds the topic registry and connects every data source.
func Open(ctx context.Context, cfg *config.Config, opts Options) (*Service, error) {
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	specs := cfg.StorageSpecs()
	adapters := make([]storage.Adapter, len(specs))
	for i, spec := range specs {
		a, err := NewAdapter(spec)
		if err != nil {
			return nil, merrors.Wrap(merrors.ErrConfig, "create adapter", err)
		}
		adapters[i] = a
	}

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dbs := make([]*sql.DB, len(adapters))
	g, gctx := errgroup.WithContext(cctx)
	for i, a := range adapters {
		g.Go(func() error {
			db, err := a.Connect(gctx)
			if err != nil {
				return merrors.Wrap(merrors.ErrIO, "connect to data source "+a.Name(), err)
			}
			dbs[i] = db
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var closeErr error
		for i, db := range dbs {
			if db != nil {
				closeErr = multierr.Append(closeErr, db.Close())
			}
			closeErr = multierr.Append(closeErr, adapters[i].Close())
		}
		return nil, multierr.Append(err, closeErr)
	}

	sources := make(map[string]*dataSource, len(adapters))
	for i, a := range adapters {
		sources[a.Name()] = &dataSource{adapter: a, db: dbs[i]}
		opts.Logger.Info().
			Str("data_source", a.Name()).
			Str("backend", string(a.Backend())).
			Msg("data source connected")
	}

	return newService(registry, sources, opts.Logger), nil
}

func newService(registry *topic.Registry, sources map[string]*dataSource, logger zerolog.Logger) *Service {
	return &Service{
		registry: registry,
		builder:  request.NewBuilder(registry),
		sources:  sources,
		logger:   logger,
	}
}

// Close closes every data source.
func (s *Service) Close() error {
	var err error
	for _, name := range s.sourceNames() {
		ds := s.sources[name]
		if cerr := ds.db.Close(); cerr != nil {
			err = multierr.Append(err, merrors.Wrap(merrors.ErrIO, "close data source "+name, cerr))
		}
		err = multierr.Append(err, ds.adapter.Close())
	}
	return err
}

// Registry returns the topic registry
func (s *Service) Registry() *topic.Registry {
	return s.registry
}

// Topics lists the configured topics in configuration order.
func (s *Service) Topics() []topic.Topic {
	return s.registry.Topics()
}

// Derive builds the SearchRequest for the given request coordinates.
func (s *Service) Derive(c request.Coordinates) (search.SearchRequest, error) {
	return s.builder.Derive(c)
}

// Search derives the request from c and executes it.
func (s *Service) Search(ctx context.Context, c request.Coordinates, opts SearchOptions) (Result, error) {
	req, err := s.builder.Derive(c)
	if err != nil {
		s.logger.Debug().Err(err).Str("path", c.Path).Msg("search rejected")
		return Result{}, err
	}
	return s.Execute(ctx, req, opts)
}

// Execute runs an already derived request.
func (s *Service) Execute(ctx context.Context, req search.SearchRequest, opts SearchOptions) (Result, error) {
	t, ok := s.registry.Topic(req.Topic)
	if !ok {
		return Result{}, merrors.UnknownTopic(req.Topic, "")
	}
	ds, ok := s.sources[t.DataSource]
	if !ok {
		return Result{}, merrors.ConfigError("topic " + t.Name + " references unknown data source " + t.DataSource)
	}

	start := time.Now()
	res, err := ops.Search(ctx, ds.db, t, req, ops.SearchOptions{
		Placeholders: ds.adapter.PlaceholderStyle(),
		Explain:      opts.Explain,
	})
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, &merrors.Error{
				Kind:    merrors.ErrCanceled,
				Message: "search canceled",
				Topic:   t.Name,
				Cause:   err,
			}
		}
		return Result{}, &merrors.Error{
			Kind:    merrors.ErrSQL,
			Message: "search",
			Topic:   t.Name,
			Cause:   err,
		}
	}

	s.logger.Debug().
		Str("topic", t.Name).
		Str("data_source", t.DataSource).
		Int("filters", len(req.Criteria.Children)).
		Int("rows", len(res.Records)).
		Dur("elapsed", time.Since(start)).
		Msg("search executed")

	return Result{
		Request:      req,
		Records:      res.Records,
		ExplainSQL:   res.ExplainSQL,
		ExplainSteps: res.ExplainSteps,
	}, nil
}

// Ping checks every data source concurrently and returns the failures keyed
// by data source name. An empty map means all are healthy.
func (s *Service) Ping(ctx context.Context) map[string]error {
	names := s.sourceNames()
	errs := make([]error, len(names))

	var g errgroup.Group
	for i, name := range names {
		ds := s.sources[name]
		g.Go(func() error {
			errs[i] = ds.db.PingContext(ctx)
			return nil
		})
	}
	_ = g.Wait()

	failed := make(map[string]error)
	for i, name := range names {
		if errs[i] != nil {
			failed[name] = errs[i]
		}
	}
	return failed
}

// DataSources returns the configured data source names, sorted.
func (s *Service) DataSources() []string {
	return s.sourceNames()
}

func (s *Service) sourceNames() []string {
	names := make([]string, 0, len(s.sources))
	for name := range s.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
