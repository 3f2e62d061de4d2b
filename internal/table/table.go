// Package table reads positional rows through a named column schema.
package table

import (
	"encoding/json"
	"math"
	"strconv"
)

// Schema maps column names to their position in a row.
type Schema struct {
	index map[string]int
}

func NewSchema(names []string) Schema {
	index := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	return Schema{index: index}
}

func (s Schema) Row(values []any) Row {
	return Row{schema: s, values: values}
}

// Row is a single positional record viewed through a Schema. All accessors
// report ok=false when the column is unknown, out of range, null or of the
// wrong type.
type Row struct {
	schema Schema
	values []any
}

func (r Row) Value(name string) (any, bool) {
	i, ok := r.schema.index[name]
	if !ok || i >= len(r.values) {
		return nil, false
	}
	v := r.values[i]
	if v == nil {
		return nil, false
	}
	return v, true
}

func (r Row) String(name string) (string, bool) {
	v, ok := r.Value(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (r Row) StringOr(name, fallback string) string {
	if s, ok := r.String(name); ok {
		return s
	}
	return fallback
}

// Int returns a non-negative integer column. Values decoded either as
// json.Number or float64 are accepted; fractions and negatives are not.
func (r Row) Int(name string) (int64, bool) {
	v, ok := r.Value(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.ParseInt(n.String(), 10, 64)
		if err != nil || i < 0 {
			return 0, false
		}
		return i, true
	case float64:
		if n < 0 || n != math.Trunc(n) || n >= 1<<63 {
			return 0, false
		}
		return int64(n), true
	case int64:
		return n, n >= 0
	case int:
		return int64(n), n >= 0
	}
	return 0, false
}

// IntPtr is Int for optional columns.
func (r Row) IntPtr(name string) *int64 {
	i, ok := r.Int(name)
	if !ok {
		return nil
	}
	return &i
}
