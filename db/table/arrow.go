package table

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gear6io/airbus/pkg/errors"
)

// Schema maps every column to an Arrow field; null, mixed and driver-specific columns become strings
func (t *Table) Schema() *arrow.Schema {
	kinds := t.Kinds()
	fields := make([]arrow.Field, len(t.Columns))
	for i, name := range t.Columns {
		fields[i] = arrow.Field{Name: name, Type: arrowType(kinds[i]), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// ToRecord builds a single Arrow record holding the whole table
func (t *Table) ToRecord(mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	schema := t.Schema()
	columns := make([]arrow.Array, len(t.Columns))
	defer func() {
		for _, col := range columns {
			if col != nil {
				col.Release()
			}
		}
	}()

	for c, field := range schema.Fields() {
		col, err := t.buildColumn(mem, c, field.Type)
		if err != nil {
			return nil, errors.Wrapf(ErrArrowBuildFailed, err, "column %q", field.Name)
		}
		columns[c] = col
	}

	return array.NewRecord(schema, columns, int64(len(t.Rows))), nil
}

// WriteIPC writes the table to w in the Arrow IPC stream format
func (t *Table) WriteIPC(w io.Writer) (err error) {
	mem := memory.NewGoAllocator()

	record, err := t.ToRecord(mem)
	if err != nil {
		return err
	}
	defer record.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(record.Schema()), ipc.WithAllocator(mem))
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = errors.New(ErrArrowWriteFailed, "failed to close arrow writer", closeErr)
		}
	}()

	if err := writer.Write(record); err != nil {
		return errors.New(ErrArrowWriteFailed, "failed to write arrow record", err)
	}
	return nil
}

func arrowType(k Kind) arrow.DataType {
	switch k {
	case KindInteger:
		return arrow.PrimitiveTypes.Int64
	case KindFloat:
		return arrow.PrimitiveTypes.Float64
	case KindBoolean:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

func (t *Table) buildColumn(mem memory.Allocator, c int, dt arrow.DataType) (arrow.Array, error) {
	builder := array.NewBuilder(mem, dt)
	defer builder.Release()

	for _, row := range t.Rows {
		v := row[c]
		if v == nil {
			builder.AppendNull()
			continue
		}

		switch b := builder.(type) {
		case *array.Int64Builder:
			n, ok := v.(int64)
			if !ok {
				return nil, fmt.Errorf("expected int64, got %T", v)
			}
			b.Append(n)
		case *array.Float64Builder:
			f, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("expected float64, got %T", v)
			}
			b.Append(f)
		case *array.BooleanBuilder:
			flag, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("expected bool, got %T", v)
			}
			b.Append(flag)
		case *array.StringBuilder:
			if s, ok := v.(string); ok {
				b.Append(s)
			} else {
				b.Append(fmt.Sprint(v))
			}
		default:
			return nil, fmt.Errorf("unsupported arrow type %s", dt)
		}
	}

	return builder.NewArray(), nil
}
