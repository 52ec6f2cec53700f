// Package table holds the canonical in-memory result of one statement.
//
// Cells are one of string, int64, float64, bool or nil. Normalize turns the
// columns and rows a driver hands back into that shape.
package table

// Kind is the portable type of a column
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindInteger
	KindFloat
	KindBoolean
	// KindOther marks driver values with no portable form (lists, structs, maps)
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	default:
		return "other"
	}
}

// Table is an ordered list of columns and rows aligned to them
type Table struct {
	Columns []string
	Rows    [][]any
}

// Empty returns a table with no columns and no rows
func Empty() *Table {
	return &Table{Columns: []string{}, Rows: [][]any{}}
}

// IsEmpty reports whether the statement produced no result set
func (t *Table) IsEmpty() bool {
	return len(t.Columns) == 0
}

// RowCount returns the number of rows
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// Column returns the cells of the named column
func (t *Table) Column(name string) ([]any, bool) {
	idx := t.columnIndex(name)
	if idx < 0 {
		return nil, false
	}
	cells := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		cells[i] = row[idx]
	}
	return cells, true
}

// Kinds reports the portable type of every column.
// A column whose non-null cells disagree is reported as text.
func (t *Table) Kinds() []Kind {
	kinds := make([]Kind, len(t.Columns))
	for c := range t.Columns {
		for _, row := range t.Rows {
			k := kindOf(row[c])
			if k == KindNull {
				continue
			}
			switch kinds[c] {
			case KindNull:
				kinds[c] = k
			case k:
			default:
				kinds[c] = KindText
			}
		}
	}
	return kinds
}

// Records returns each row as a column name to cell map
func (t *Table) Records() []map[string]any {
	records := make([]map[string]any, len(t.Rows))
	for i, row := range t.Rows {
		rec := make(map[string]any, len(t.Columns))
		for c, name := range t.Columns {
			rec[name] = row[c]
		}
		records[i] = rec
	}
	return records
}

func (t *Table) columnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func kindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case string:
		return KindText
	case int64:
		return KindInteger
	case float64:
		return KindFloat
	case bool:
		return KindBoolean
	default:
		return KindOther
	}
}
