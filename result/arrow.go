package result

import (
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/sqlspec/sqlspec"
)

// ColumnarTable wraps an arrow.Record, the columnar projection spec.md
// §4.6 names. Every table the driver package produces comes from Arrow(),
// which builds one from row buffers; no adapter in this module calls
// FromRecord, so no backend's native Arrow batch is passed through.
type ColumnarTable struct {
	Record arrow.Record
}

// FromRecord wraps an already-produced arrow.Record without copying,
// for drivers that natively return Arrow batches.
func FromRecord(rec arrow.Record) ColumnarTable {
	return ColumnarTable{Record: rec}
}

// Arrow builds a ColumnarTable from the ResultSet's row buffers, inferring
// an Arrow field type per column from the first non-nil value observed
// (spec.md §4.6: "otherwise built from row buffers").
func (rs *ResultSet) Arrow() (ColumnarTable, error) {
	fields := make([]arrow.Field, len(rs.columns))
	kinds := make([]arrowKind, len(rs.columns))

	for i, c := range rs.columns {
		kind := inferArrowKind(columnSample(rs.rows, i))
		kinds[i] = kind
		fields[i] = arrow.Field{Name: c.Name, Type: kind.dataType, Nullable: true}
	}

	schema := arrow.NewSchema(fields, nil)
	pool := memory.NewGoAllocator()
	builders := make([]array.Builder, len(fields))

	for i, k := range kinds {
		builders[i] = array.NewBuilder(pool, k.dataType)
		defer builders[i].Release()
	}

	for _, row := range rs.rows {
		for i, v := range row {
			if err := appendArrowValue(builders[i], kinds[i], v); err != nil {
				return ColumnarTable{}, sqlspec.NewError(sqlspec.KindDataError, fmt.Sprintf("column %q: %v", rs.columns[i].Name, err), err)
			}
		}
	}

	cols := make([]arrow.Array, len(builders))
	for i, b := range builders {
		cols[i] = b.NewArray()
		defer cols[i].Release()
	}

	rec := array.NewRecord(schema, cols, int64(len(rs.rows)))

	return ColumnarTable{Record: rec}, nil
}

type arrowKind struct {
	dataType arrow.DataType
}

func columnSample(rows []Row, col int) any {
	for _, row := range rows {
		if row[col] != nil {
			return row[col]
		}
	}

	return nil
}

func inferArrowKind(sample any) arrowKind {
	switch sample.(type) {
	case int, int64, int32, int16, int8:
		return arrowKind{dataType: arrow.PrimitiveTypes.Int64}
	case uint, uint64, uint32, uint16, uint8:
		return arrowKind{dataType: arrow.PrimitiveTypes.Uint64}
	case float32, float64:
		return arrowKind{dataType: arrow.PrimitiveTypes.Float64}
	case bool:
		return arrowKind{dataType: arrow.FixedWidthTypes.Boolean}
	case time.Time:
		return arrowKind{dataType: arrow.FixedWidthTypes.Timestamp_ns}
	case []byte:
		return arrowKind{dataType: arrow.BinaryTypes.Binary}
	default:
		return arrowKind{dataType: arrow.BinaryTypes.String}
	}
}

func appendArrowValue(b array.Builder, k arrowKind, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}

	switch builder := b.(type) {
	case *array.Int64Builder:
		n, err := toInt64(v)
		if err != nil {
			return err
		}

		builder.Append(n)
	case *array.Uint64Builder:
		n, err := toInt64(v)
		if err != nil {
			return err
		}

		builder.Append(uint64(n))
	case *array.Float64Builder:
		f, err := toFloat64(v)
		if err != nil {
			return err
		}

		builder.Append(f)
	case *array.BooleanBuilder:
		bl, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}

		builder.Append(bl)
	case *array.TimestampBuilder:
		t, err := toTime(v)
		if err != nil {
			return err
		}

		builder.Append(arrow.Timestamp(t.UnixNano()))
	case *array.BinaryBuilder:
		bytes, err := toBytes(v)
		if err != nil {
			return err
		}

		builder.Append(bytes)
	case *array.StringBuilder:
		builder.Append(fmt.Sprintf("%v", v))
	default:
		return fmt.Errorf("unsupported arrow builder %T", b)
	}

	return nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("expected float, got %T", v)
	}
}
