package topic

import "fmt"

// DataType is the declared type of a key column.
type DataType string

const (
	DataTypeString  DataType = "STRING"
	DataTypeNumeric DataType = "NUMERIC"
)

func (d DataType) Valid() bool {
	switch d {
	case DataTypeString, DataTypeNumeric:
		return true
	default:
		return false
	}
}

// KeyField is a column usable for positional equality lookup. Its position in
// Topic.KeyFields maps to the path segment at the same offset after the topic.
type KeyField struct {
	Column   string   `json:"column" yaml:"column"`
	DataType DataType `json:"dataType" yaml:"dataType"`
}

// Topic describes a searchable entity backed by a relational table.
type Topic struct {
	Name       string            `json:"name" yaml:"name"`
	PluralName string            `json:"pluralName,omitempty" yaml:"pluralName"`
	DataSource string            `json:"dataSource" yaml:"dataSource"`
	Schema     string            `json:"schema,omitempty" yaml:"schema"`
	Table      string            `json:"table" yaml:"table"`
	KeyFields  []KeyField        `json:"keyFields" yaml:"keyFields"`
	Aliases    map[string]string `json:"aliases,omitempty" yaml:"aliases"`
}

// KeyField returns the key field at position i.
func (t Topic) KeyField(i int) (KeyField, bool) {
	if i < 0 || i >= len(t.KeyFields) {
		return KeyField{}, false
	}
	return t.KeyFields[i], true
}

func (t Topic) validate() error {
	if t.Name == "" {
		return fmt.Errorf("topic name is required")
	}
	if t.Table == "" {
		return fmt.Errorf("topic %q: table is required", t.Name)
	}
	for i, kf := range t.KeyFields {
		if kf.Column == "" {
			return fmt.Errorf("topic %q: key field %d has no column", t.Name, i)
		}
		if !kf.DataType.Valid() {
			return fmt.Errorf("topic %q: key field %q has unknown data type %q", t.Name, kf.Column, kf.DataType)
		}
	}
	for col, alias := range t.Aliases {
		if col == "" || alias == "" {
			return fmt.Errorf("topic %q: aliases need both column and name", t.Name)
		}
	}
	return nil
}

// clone copies the slices and maps so a registered topic cannot be changed
// through a value handed to a caller.
func (t Topic) clone() Topic {
	c := t
	c.KeyFields = append([]KeyField(nil), t.KeyFields...)
	if t.Aliases != nil {
		c.Aliases = make(map[string]string, len(t.Aliases))
		for k, v := range t.Aliases {
			c.Aliases[k] = v
		}
	}
	return c
}
