package record_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/moneta/moneta/moneta/record"
)

// fakeCursor yields rows (id, name) for ids 0..n-1 and counts how far it was
// advanced.
type fakeCursor struct {
	n       int
	pos     int
	nexts   int
	columns int

	scanErr error // returned by Scan at row failAt
	failAt  int
	err     error // returned by Err once exhausted

	buf []byte // reused between rows like a driver buffer
}

func newCursor(n int) *fakeCursor { return &fakeCursor{n: n, failAt: -1} }

func (c *fakeCursor) Next() bool {
	c.nexts++
	if c.pos >= c.n {
		return false
	}
	c.pos++
	return true
}

func (c *fakeCursor) Columns() ([]string, error) {
	c.columns++
	return []string{"id", "name"}, nil
}

func (c *fakeCursor) Scan(dest ...any) error {
	row := c.pos - 1
	if row == c.failAt {
		return c.scanErr
	}
	c.buf = append(c.buf[:0], fmt.Sprintf("row-%d", row)...)
	*dest[0].(*any) = int64(row)
	*dest[1].(*any) = c.buf
	return nil
}

func (c *fakeCursor) Err() error { return c.err }

func ids(recs []record.Record) []int64 {
	out := make([]int64, 0, len(recs))
	for _, r := range recs {
		v, _ := r.Get("id")
		out = append(out, v.(int64))
	}
	return out
}

func span(from, to int64) []int64 {
	out := make([]int64, 0)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

func window(start int64, max *int64) record.Window {
	return record.Window{StartRow: start, MaxRows: max}
}

func ptr(n int64) *int64 { return &n }

func TestMaterialize_Unbounded(t *testing.T) {
	cur := newCursor(92)
	recs, err := record.Materialize(context.Background(), cur, record.Window{})
	assert.NoError(t, err)
	assert.Equal(t, 92, len(recs))
	assert.Equal(t, span(0, 92), ids(recs))
	assert.Equal(t, 93, cur.nexts)
	assert.Equal(t, 1, cur.columns)
}

func TestMaterialize_StartRowNearEnd(t *testing.T) {
	cur := newCursor(92)
	recs, err := record.Materialize(context.Background(), cur, window(90, nil))
	assert.NoError(t, err)
	assert.Equal(t, []int64{90, 91}, ids(recs))
}

func TestMaterialize_MaxRowsStopsAdvancing(t *testing.T) {
	cur := newCursor(92)
	recs, err := record.Materialize(context.Background(), cur, record.Limit(10))
	assert.NoError(t, err)
	assert.Equal(t, span(0, 10), ids(recs))
	assert.Equal(t, 10, cur.nexts)
}

func TestMaterialize_StartAndMax(t *testing.T) {
	cur := newCursor(92)
	recs, err := record.Materialize(context.Background(), cur, window(5, ptr(10)))
	assert.NoError(t, err)
	assert.Equal(t, span(5, 15), ids(recs))
	assert.Equal(t, 15, cur.nexts)
}

func TestMaterialize_ZeroMaxRows(t *testing.T) {
	cur := newCursor(92)
	recs, err := record.Materialize(context.Background(), cur, window(3, ptr(0)))
	assert.NoError(t, err)
	assert.True(t, recs != nil)
	assert.Equal(t, 0, len(recs))
	assert.Equal(t, 0, cur.nexts)
}

func TestMaterialize_EmptyCursor(t *testing.T) {
	cur := newCursor(0)
	recs, err := record.Materialize(context.Background(), cur, record.Window{})
	assert.NoError(t, err)
	assert.True(t, recs != nil)
	assert.Equal(t, 0, len(recs))
	assert.Equal(t, 0, cur.columns)
}

// The output is always the slice rows[s : s+m] clamped to the row count.
func TestMaterialize_SliceLaw(t *testing.T) {
	const total = 92
	maxes := []*int64{nil, ptr(0), ptr(1), ptr(5), ptr(92), ptr(200)}
	for s := int64(0); s <= total+3; s++ {
		for _, m := range maxes {
			name := fmt.Sprintf("start=%d/max=nil", s)
			if m != nil {
				name = fmt.Sprintf("start=%d/max=%d", s, *m)
			}
			t.Run(name, func(t *testing.T) {
				recs, err := record.Materialize(context.Background(), newCursor(total), window(s, m))
				assert.NoError(t, err)

				from := min(s, total)
				to := int64(total)
				if m != nil {
					to = min(s+*m, total)
				}
				if to < from {
					to = from
				}
				assert.Equal(t, span(from, to), ids(recs))
			})
		}
	}
}

func TestMaterialize_DetachesByteBuffers(t *testing.T) {
	recs, err := record.Materialize(context.Background(), newCursor(3), record.Window{})
	assert.NoError(t, err)
	for i, r := range recs {
		v, _ := r.Get("name")
		assert.Equal(t, fmt.Sprintf("row-%d", i), string(v.([]byte)))
	}
}

func TestMaterialize_ScanErrorIsReturnedUnchanged(t *testing.T) {
	boom := errors.New("boom")
	cur := newCursor(10)
	cur.failAt = 4
	cur.scanErr = boom

	recs, err := record.Materialize(context.Background(), cur, record.Window{})
	assert.True(t, recs == nil)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, boom, err)
}

func TestMaterialize_SkippedRowsAreNotScanned(t *testing.T) {
	cur := newCursor(10)
	cur.failAt = 2
	cur.scanErr = errors.New("must not scan")

	recs, err := record.Materialize(context.Background(), cur, window(5, nil))
	assert.NoError(t, err)
	assert.Equal(t, span(5, 10), ids(recs))
}

func TestMaterialize_CursorErr(t *testing.T) {
	broken := errors.New("connection reset")
	cur := newCursor(3)
	cur.err = broken

	_, err := record.Materialize(context.Background(), cur, record.Window{})
	assert.Equal(t, broken, err)
}

func TestMaterialize_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cur := newCursor(5)

	_, err := record.Materialize(ctx, cur, record.Window{})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, cur.nexts)
}
