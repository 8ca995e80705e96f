package result

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/sqlspec/sqlspec"
)

// fold is the Unicode case-folding used for case-insensitive column/field
// name matching — strings.ToLower is ASCII-biased and mismatches column
// names with non-ASCII letters (Turkish "İ", German "ß") that a driver
// might legitimately return.
var fold = cases.Fold()

// MapOptions controls AsType's column-to-field matching and null handling
// per spec.md §4.6 "Mapping policy".
type MapOptions struct {
	// Strict requires an exact (case-sensitive) column/field name match;
	// the default is case-insensitive.
	Strict bool
	// StrictColumns rejects a ResultSet column with no matching field
	// instead of silently dropping it.
	StrictColumns bool
	// RawJSON, when true, leaves JSON-shaped column values ([]byte or
	// string holding JSON) as their raw form instead of decoding them
	// into a map/slice.
	RawJSON bool
}

// AsType maps every row into a new value of dest's element type, where
// dest is a non-nil pointer to a slice (e.g. *[]User). Column names match
// exported struct fields by a `db:"..."` tag first, then by name
// (case-insensitively unless opts.Strict).
func (rs *ResultSet) AsType(dest any, opts MapOptions) error {
	destVal := reflect.ValueOf(dest)
	if destVal.Kind() != reflect.Ptr || destVal.IsNil() || destVal.Elem().Kind() != reflect.Slice {
		return sqlspec.NewError(sqlspec.KindDataError, "AsType requires a non-nil pointer to a slice", nil)
	}

	sliceVal := destVal.Elem()
	elemType := sliceVal.Type().Elem()

	plan, err := buildPlan(elemType, rs.columns, opts)
	if err != nil {
		return err
	}

	out := reflect.MakeSlice(sliceVal.Type(), 0, len(rs.rows))

	for i, row := range rs.rows {
		elem := reflect.New(elemType).Elem()

		if err := applyPlan(elem, row, plan, opts); err != nil {
			return fmt.Errorf("mapping row %d: %w", i, err)
		}

		out = reflect.Append(out, elem)
	}

	sliceVal.Set(out)

	return nil
}

type fieldPlan struct {
	fieldIndex []int
	fieldType  reflect.Type
	column     Column
	colIdx     int
}

func buildPlan(elemType reflect.Type, columns []Column, opts MapOptions) ([]fieldPlan, error) {
	if elemType.Kind() != reflect.Struct {
		return nil, sqlspec.NewError(sqlspec.KindDataError, "AsType destination element must be a struct", nil)
	}

	byTag := make(map[string][]int)
	byName := make(map[string][]int)

	var walk func(t reflect.Type, prefix []int)

	walk = func(t reflect.Type, prefix []int) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" && !f.Anonymous {
				continue // unexported
			}

			idx := append(append([]int(nil), prefix...), i)

			if f.Anonymous && f.Type.Kind() == reflect.Struct {
				walk(f.Type, idx)
				continue
			}

			name := f.Name

			if tag, ok := f.Tag.Lookup("db"); ok && tag != "" && tag != "-" {
				byTag[strings.Split(tag, ",")[0]] = idx
			}

			byName[name] = idx
			byName[fold.String(name)] = idx
		}
	}

	walk(elemType, nil)

	plan := make([]fieldPlan, 0, len(columns))

	for ci, col := range columns {
		idx, ok := byTag[col.Name]
		if !ok {
			if opts.Strict {
				idx, ok = byName[col.Name]
			} else {
				idx, ok = byName[fold.String(col.Name)]
			}
		}

		if !ok {
			if opts.StrictColumns {
				return nil, sqlspec.NewError(sqlspec.KindDataError, fmt.Sprintf("no destination field for column %q", col.Name), nil)
			}

			continue
		}

		ft := fieldTypeAt(elemType, idx)
		plan = append(plan, fieldPlan{fieldIndex: idx, fieldType: ft, column: col, colIdx: ci})
	}

	return plan, nil
}

func fieldTypeAt(t reflect.Type, idx []int) reflect.Type {
	cur := t
	for i, n := range idx {
		f := cur.Field(n)
		if i == len(idx)-1 {
			return f.Type
		}

		cur = f.Type
	}

	return cur
}

func applyPlan(elem reflect.Value, row Row, plan []fieldPlan, opts MapOptions) error {
	for _, p := range plan {
		raw := row[p.colIdx]

		field := elem.FieldByIndex(p.fieldIndex)

		if err := assign(field, raw, p.column, opts); err != nil {
			return fmt.Errorf("column %q: %w", p.column.Name, err)
		}
	}

	return nil
}

func assign(field reflect.Value, raw any, col Column, opts MapOptions) error {
	if raw == nil {
		return assignNull(field, col)
	}

	switch field.Kind() {
	case reflect.Ptr:
		target := reflect.New(field.Type().Elem())
		if err := assign(target.Elem(), raw, col, opts); err != nil {
			return err
		}

		field.Set(target)

		return nil
	}

	if field.Type() == reflect.TypeOf(decimal.Decimal{}) {
		d, err := toDecimal(raw)
		if err != nil {
			return err
		}

		field.Set(reflect.ValueOf(d))

		return nil
	}

	if field.Type() == reflect.TypeOf(time.Time{}) {
		t, err := toTime(raw)
		if err != nil {
			return err
		}

		field.Set(reflect.ValueOf(t))

		return nil
	}

	switch field.Kind() {
	case reflect.Map, reflect.Slice:
		if field.Type() == reflect.TypeOf([]byte(nil)) {
			b, err := toBytes(raw)
			if err != nil {
				return err
			}

			field.SetBytes(b)

			return nil
		}

		return assignJSON(field, raw, opts)
	case reflect.Interface:
		if opts.RawJSON {
			field.Set(reflect.ValueOf(raw))
			return nil
		}

		return assignJSON(field, raw, opts)
	}

	rv := reflect.ValueOf(raw)
	if rv.Type().AssignableTo(field.Type()) {
		field.Set(rv)
		return nil
	}

	if rv.Type().ConvertibleTo(field.Type()) {
		field.Set(rv.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T into %s", raw, field.Type())
}

func assignNull(field reflect.Value, col Column) error {
	switch field.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		field.Set(reflect.Zero(field.Type()))
		return nil
	default:
		return sqlspec.NewError(sqlspec.KindDataError, fmt.Sprintf("column %q is NULL but destination field is not optional", col.Name), nil)
	}
}

func assignJSON(field reflect.Value, raw any, opts MapOptions) error {
	if opts.RawJSON {
		return fmt.Errorf("cannot assign raw JSON value of type %T into %s without RawJSON interface{} field", raw, field.Type())
	}

	b, err := toBytes(raw)
	if err != nil {
		return err
	}

	ptr := reflect.New(field.Type())
	if err := json.Unmarshal(b, ptr.Interface()); err != nil {
		return fmt.Errorf("decoding JSON column: %w", err)
	}

	field.Set(ptr.Elem())

	return nil
}

func toBytes(raw any) ([]byte, error) {
	switch v := raw.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("cannot interpret %T as JSON/bytes", raw)
	}
}

func toDecimal(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case string:
		return decimal.NewFromString(v)
	case []byte:
		return decimal.NewFromString(string(v))
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case decimal.Decimal:
		return v, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("cannot interpret %T as decimal", raw)
	}
}

func toTime(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05.999999999Z07:00", "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}

		return time.Time{}, fmt.Errorf("cannot parse %q as a timestamp", v)
	default:
		return time.Time{}, fmt.Errorf("cannot interpret %T as a timestamp", raw)
	}
}
