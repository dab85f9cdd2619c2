package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/moneta/moneta/moneta/planner"
	"github.com/moneta/moneta/moneta/record"
	"github.com/moneta/moneta/moneta/search"
	"github.com/moneta/moneta/moneta/storage/sqlbuilder"
	"github.com/moneta/moneta/moneta/topic"
)

// Querier runs a read query. *sql.DB, *sql.Conn and *sql.Tx satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SearchOptions configures a search operation
type SearchOptions struct {
	Placeholders sqlbuilder.PlaceholderStyle
	Explain      bool
}

// SearchResult is the materialized page of one search.
type SearchResult struct {
	Records      []record.Record
	ExplainSQL   string
	ExplainSteps []string
}

// Search executes req against t's table and materializes the requested window.
// The row cursor is closed on every return path, including when the window
// is filled before the result set is exhausted.
func Search(
	ctx context.Context,
	db Querier,
	t topic.Topic,
	req search.SearchRequest,
	opts SearchOptions,
) (*SearchResult, error) {
	// 1. Compile
	builder := sqlbuilder.New(opts.Placeholders)
	compiled, err := planner.Compile(t, req, builder)
	if err != nil {
		return nil, fmt.Errorf("compile search: %w", err)
	}

	// 2. Window; an empty window never touches the database
	start, max, bounded := req.Window()
	w := record.Window{StartRow: start}
	if bounded {
		w.MaxRows = &max
	}

	result := &SearchResult{}
	if opts.Explain {
		result.ExplainSQL = compiled.SQL
		result.ExplainSteps = compiled.ExplainSteps
	}
	if bounded && max == 0 {
		result.Records = []record.Record{}
		return result, nil
	}

	// 3. Execute
	rows, err := db.QueryContext(ctx, compiled.SQL, compiled.Args...)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}
	defer rows.Close()

	// 4. Materialize
	recs, err := record.Materialize(ctx, rows, w)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	// 5. Shape output
	if len(t.Aliases) > 0 {
		for i := range recs {
			recs[i] = recs[i].Rename(t.Aliases)
		}
	}
	result.Records = recs

	return result, nil
}
