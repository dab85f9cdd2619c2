package record

import "context"

// Cursor is a forward-only row source. *sql.Rows satisfies it.
type Cursor interface {
	Next() bool
	Columns() ([]string, error)
	Scan(dest ...any) error
	Err() error
}

// Window bounds which observed rows are materialized.
type Window struct {
	StartRow int64  // rows observed before this zero-based offset are discarded
	MaxRows  *int64 // nil means unbounded
}

// Limit returns a window with only a row limit set.
func Limit(n int64) Window { return Window{MaxRows: &n} }

// Materialize reads cur in a single forward pass and returns the rows whose
// zero-based position is in [StartRow, StartRow+MaxRows). It stops advancing
// the cursor as soon as MaxRows records have been emitted. The caller owns cur
// and must close it.
//
// Errors from the cursor are returned unchanged.
func Materialize(ctx context.Context, cur Cursor, w Window) ([]Record, error) {
	out := make([]Record, 0)
	if w.MaxRows != nil && *w.MaxRows <= 0 {
		return out, nil
	}

	var columns []string
	var observed int64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !cur.Next() {
			break
		}
		r := observed
		observed++
		if r < w.StartRow {
			continue
		}

		if columns == nil {
			cols, err := cur.Columns()
			if err != nil {
				return nil, err
			}
			columns = cols
		}

		rec, err := scanRecord(cur, columns)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)

		if w.MaxRows != nil && int64(len(out)) >= *w.MaxRows {
			return out, nil
		}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanRecord(cur Cursor, columns []string) (Record, error) {
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := cur.Scan(dest...); err != nil {
		return Record{}, err
	}
	// database/sql copies driver bytes when scanning into *any; other cursors
	// may reuse their buffers, so detach them here as well.
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = append([]byte(nil), b...)
		}
	}
	return Record{columns: columns, values: values}, nil
}
