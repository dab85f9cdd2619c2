package record

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"
)

// Record is one materialized row: column names and values in select order.
type Record struct {
	columns []string
	values  []any
}

// New builds a record from parallel column and value slices. Both are copied.
func New(columns []string, values []any) Record {
	return Record{
		columns: append([]string(nil), columns...),
		values:  append([]any(nil), values...),
	}
}

func (r Record) Len() int { return len(r.columns) }

// Columns returns the column names in order.
func (r Record) Columns() []string {
	return append([]string(nil), r.columns...)
}

// Values returns the values in column order.
func (r Record) Values() []any {
	return append([]any(nil), r.values...)
}

// Get returns the value of the first column with the given name.
func (r Record) Get(column string) (any, bool) {
	for i, c := range r.columns {
		if c == column {
			return r.values[i], true
		}
	}
	return nil, false
}

// Rename returns a copy whose columns are renamed through aliases. Columns
// without an alias keep their name.
func (r Record) Rename(aliases map[string]string) Record {
	if len(aliases) == 0 {
		return r
	}
	cols := make([]string, len(r.columns))
	for i, c := range r.columns {
		if a, ok := aliases[c]; ok {
			cols[i] = a
		} else {
			cols[i] = c
		}
	}
	return Record{columns: cols, values: r.values}
}

// Map returns the record as an unordered map.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		m[c] = r.values[i]
	}
	return m
}

// MarshalJSON encodes the record as an object whose keys keep column order.
// []byte values holding valid UTF-8 are written as strings, matching what text
// columns scan to. Other byte values keep encoding/json's base64 form.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		v := r.values[i]
		if b, ok := v.([]byte); ok && utf8.Valid(b) {
			v = string(b)
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
