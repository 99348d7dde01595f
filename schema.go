package filesmanager

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSchemaMismatch is matched by every *SchemaError.
var ErrSchemaMismatch = errors.New("schema mismatch")

// Column is one column of a metadata table as the database reports it.
type Column struct {
	Type     string
	Nullable bool
	Unique   bool // covered by a single-column unique index or constraint
}

// SchemaError lists every difference between a metadata table and the
// layout the repositories rely on.
type SchemaError struct {
	Table      string
	Missing    []string
	Mismatched []string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "table %s schema validation failed", e.Table)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "; missing columns: %s", strings.Join(e.Missing, ", "))
	}
	if len(e.Mismatched) > 0 {
		fmt.Fprintf(&b, "; mismatched columns: %s", strings.Join(e.Mismatched, "; "))
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error { return ErrSchemaMismatch }

// CompareColumns checks actual against expected and returns a *SchemaError
// describing every difference, or nil. Only columns named in expected are
// checked; an expected Unique column must be unique in actual, not the
// other way round.
func CompareColumns(table string, expected, actual map[string]Column) error {
	names := make([]string, 0, len(expected))
	for name := range expected {
		names = append(names, name)
	}
	sort.Strings(names)

	se := &SchemaError{Table: table}
	for _, name := range names {
		want := expected[name]
		got, ok := actual[name]
		if !ok {
			se.Missing = append(se.Missing, name)
			continue
		}

		if got.Type != want.Type {
			se.Mismatched = append(se.Mismatched, fmt.Sprintf("%s: expected %s, got %s", name, want.Type, got.Type))
		}
		if got.Nullable != want.Nullable {
			se.Mismatched = append(se.Mismatched, fmt.Sprintf("%s: expected nullable=%v, got nullable=%v", name, want.Nullable, got.Nullable))
		}
		if want.Unique && !got.Unique {
			se.Mismatched = append(se.Mismatched, name+": expected a unique index")
		}
	}

	if len(se.Missing) == 0 && len(se.Mismatched) == 0 {
		return nil
	}
	return se
}
