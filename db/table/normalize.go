package table

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/gear6io/airbus/pkg/errors"
	"github.com/shopspring/decimal"
)

// TimestampLayout is the canonical text form of timestamp cells
const TimestampLayout = "2006-01-02 15:04:05.999999999"

// coercion is decided once per column from its first non-null value
type coercion int

const (
	coerceNone coercion = iota
	coerceFloat
	coerceText
)

// decimalValue matches engine decimal types that expose a float view, e.g. duckdb.Decimal
type decimalValue interface {
	Float64() float64
}

// Normalize builds the canonical table for a raw result.
//
// Column names keep only their last dotted segment; when two collapse to the
// same name the later column wins and takes the position of the first. A
// column whose first non-null value is a fixed-point decimal becomes float,
// one whose first non-null value is a timestamp becomes text. Other columns
// keep their values, widened to int64/float64/string where the driver used a
// narrower Go type.
func Normalize(columns []string, rows [][]any) (*Table, error) {
	return NormalizeTyped(columns, nil, rows)
}

// NormalizeTyped is Normalize with the engine type name of each column.
// A column declared DECIMAL or NUMERIC becomes float even when the driver
// hands its cells over as text. types may be nil or shorter than columns.
func NormalizeTyped(columns, types []string, rows [][]any) (*Table, error) {
	if len(columns) == 0 {
		if len(rows) > 0 {
			return nil, errors.Newf(ErrRowWidthMismatch, "result has %d rows but no columns", len(rows))
		}
		return Empty(), nil
	}

	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, errors.Newf(ErrRowWidthMismatch, "row %d has %d cells, expected %d", i, len(row), len(columns)).
				AddContext("row", strconv.Itoa(i))
		}
	}

	names, sources := flattenColumns(columns)

	out := &Table{
		Columns: names,
		Rows:    make([][]any, len(rows)),
	}
	for i := range out.Rows {
		out.Rows[i] = make([]any, len(names))
	}

	for c, src := range sources {
		mode := sampleCoercion(rows, src)
		if src < len(types) && isDecimalType(types[src]) {
			mode = coerceFloat
		}
		for r, row := range rows {
			cell, err := coerceCell(row[src], mode)
			if err != nil {
				return nil, errors.Wrapf(ErrCoercionFailed, err, "column %q row %d", names[c], r).
					AddContext("column", names[c])
			}
			out.Rows[r][c] = cell
		}
	}

	return out, nil
}

// FlattenName returns the part of a qualified column name after the last dot
func FlattenName(name string) string {
	if idx := strings.LastIndex(name, "."); idx != -1 {
		return name[idx+1:]
	}
	return name
}

// flattenColumns returns the output names and, for each, the input column feeding it
func flattenColumns(columns []string) ([]string, []int) {
	var names []string
	var sources []int
	position := make(map[string]int, len(columns))

	for i, col := range columns {
		name := FlattenName(col)
		if at, ok := position[name]; ok {
			sources[at] = i
			continue
		}
		position[name] = len(names)
		names = append(names, name)
		sources = append(sources, i)
	}
	return names, sources
}

func sampleCoercion(rows [][]any, col int) coercion {
	for _, row := range rows {
		v := row[col]
		if v == nil {
			continue
		}
		switch {
		case isDecimal(v):
			return coerceFloat
		case isTimestamp(v):
			return coerceText
		default:
			return coerceNone
		}
	}
	return coerceNone
}

func coerceCell(v any, mode coercion) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch mode {
	case coerceFloat:
		return toFloat(v)
	case coerceText:
		return toText(v), nil
	default:
		return canonical(v), nil
	}
}

// isDecimalType matches engine type names such as DECIMAL, DECIMAL(10,2) or numeric
func isDecimalType(name string) bool {
	name = strings.ToUpper(strings.TrimSpace(name))
	return strings.HasPrefix(name, "DECIMAL") || strings.HasPrefix(name, "NUMERIC")
}

func isDecimal(v any) bool {
	switch v.(type) {
	case decimal.Decimal, *decimal.Decimal, decimal.NullDecimal, *big.Rat, *big.Float:
		return true
	case decimalValue:
		return true
	}
	return false
}

func isTimestamp(v any) bool {
	switch v.(type) {
	case time.Time, *time.Time:
		return true
	}
	return false
}

func toFloat(v any) (any, error) {
	switch d := v.(type) {
	case decimal.Decimal:
		f, _ := d.Float64()
		return f, nil
	case *decimal.Decimal:
		f, _ := d.Float64()
		return f, nil
	case decimal.NullDecimal:
		if !d.Valid {
			return nil, nil
		}
		f, _ := d.Decimal.Float64()
		return f, nil
	case *big.Rat:
		f, _ := d.Float64()
		return f, nil
	case *big.Float:
		f, _ := d.Float64()
		return f, nil
	case decimalValue:
		return d.Float64(), nil
	}

	switch c := canonical(v).(type) {
	case int64:
		return float64(c), nil
	case float64:
		return c, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to float", v)
	}
}

func toText(v any) any {
	switch t := v.(type) {
	case time.Time:
		return formatTimestamp(t)
	case *time.Time:
		if t == nil {
			return nil
		}
		return formatTimestamp(*t)
	}
	return fmt.Sprint(canonical(v))
}

func formatTimestamp(t time.Time) string {
	if t.Location() == time.UTC {
		return t.Format(TimestampLayout)
	}
	return t.Format(TimestampLayout + "-07:00")
}

// canonical widens driver scalars to the portable cell types and leaves the rest alone
func canonical(v any) any {
	switch n := v.(type) {
	case []byte:
		return string(n)
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint:
		return unsignedCell(uint64(n))
	case uint64:
		return unsignedCell(n)
	case float32:
		// Round-trip through the shortest float32 text so 0.1 stays 0.1
		f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(n), 'g', -1, 32), 64)
		return f
	}
	return v
}

func unsignedCell(n uint64) any {
	if n > math.MaxInt64 {
		return strconv.FormatUint(n, 10)
	}
	return int64(n)
}
