package result

import (
	"fmt"

	"github.com/sqlspec/sqlspec"
)

// Row is one ordered tuple of column values, addressable by position or,
// via ResultSet.ColumnIndex, by name.
type Row []any

// Warning is a non-fatal note attached to a ResultSet, e.g. the rows-
// affected -1-to-0 coercion spec.md §9 calls out as a deliberate
// tightening.
type Warning struct {
	Message string
}

// ResultSet is the driver-agnostic container spec.md §3/§4.6 describe:
// column descriptors, an ordered row sequence, a rows-affected count, and
// a name->index lookup. Every row has the same arity as the column list.
type ResultSet struct {
	columns      []Column
	index        map[string]int
	rows         []Row
	rowsAffected int64
	warnings     []Warning
	restartable  bool
	consumed     bool
}

// New builds a ResultSet from columns and rows. rowsAffected of -1 (a
// common driver sentinel for "unknown", typically from DDL) is coerced to
// 0 with a Warning attached, per spec.md §9's Open Question decision.
// restartable marks whether Rows() may be called more than once; drivers
// that only provide a forward-only cursor pass false.
func New(columns []Column, rows []Row, rowsAffected int64, restartable bool) (*ResultSet, error) {
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, sqlspec.NewError(sqlspec.KindDataError,
				fmt.Sprintf("row %d has arity %d, expected %d columns", i, len(row), len(columns)), nil)
		}
	}

	rs := &ResultSet{
		columns:     append([]Column(nil), columns...),
		rows:        append([]Row(nil), rows...),
		restartable: restartable,
	}

	rs.index = make(map[string]int, len(columns))
	for i, c := range columns {
		rs.index[c.Name] = i
	}

	if rowsAffected < 0 {
		rs.rowsAffected = 0
		rs.warnings = append(rs.warnings, Warning{Message: fmt.Sprintf("driver reported rows-affected %d; coerced to 0", rowsAffected)})
	} else {
		rs.rowsAffected = rowsAffected
	}

	return rs, nil
}

// Columns returns the ResultSet's column descriptors.
func (rs *ResultSet) Columns() []Column { return append([]Column(nil), rs.columns...) }

// ColumnIndex returns the position of a column by exact name match.
func (rs *ResultSet) ColumnIndex(name string) (int, bool) {
	i, ok := rs.index[name]
	return i, ok
}

// RowsAffected returns the (already-coerced, non-negative) rows-affected
// count for a mutation.
func (rs *ResultSet) RowsAffected() int64 { return rs.rowsAffected }

// Warnings returns any non-fatal notes accumulated while building the
// ResultSet.
func (rs *ResultSet) Warnings() []Warning { return rs.warnings }

// Len returns the number of rows currently held.
func (rs *ResultSet) Len() int { return len(rs.rows) }

// Iterator is a finite, forward-only view over a ResultSet's rows, unless
// the ResultSet was built with restartable=true.
type Iterator struct {
	rs  *ResultSet
	pos int
}

// Rows returns an Iterator over the ResultSet. A second call fails unless
// the ResultSet was built as restartable, per spec.md §4.6 "not
// restartable unless the driver advertised a rewindable cursor".
func (rs *ResultSet) Rows() (*Iterator, error) {
	if rs.consumed && !rs.restartable {
		return nil, sqlspec.NewError(sqlspec.KindDataError, "result is not restartable and has already been iterated", nil)
	}

	rs.consumed = true

	return &Iterator{rs: rs}, nil
}

// Next advances the iterator, reporting whether a row is available.
func (it *Iterator) Next() bool {
	if it.pos >= len(it.rs.rows) {
		return false
	}

	it.pos++

	return true
}

// Row returns the row the last successful Next call advanced to.
func (it *Iterator) Row() Row {
	if it.pos == 0 || it.pos > len(it.rs.rows) {
		return nil
	}

	return it.rs.rows[it.pos-1]
}

// All materializes every row into an ordered slice.
func (rs *ResultSet) All() []Row {
	return append([]Row(nil), rs.rows...)
}

// One returns the exactly-one row a query is expected to produce, failing
// with ErrNoRows or ErrMultipleRows otherwise.
func (rs *ResultSet) One() (Row, error) {
	switch len(rs.rows) {
	case 0:
		return nil, sqlspec.NewError(sqlspec.KindDataError, "expected exactly one row, got none", sqlspec.ErrNoRows)
	case 1:
		return rs.rows[0], nil
	default:
		return nil, sqlspec.NewError(sqlspec.KindDataError, fmt.Sprintf("expected exactly one row, got %d", len(rs.rows)), sqlspec.ErrMultipleRows)
	}
}

// OneOrNone returns the zero-or-one row a query may produce. found is
// false when the ResultSet has no rows; more than one row is still an
// error.
func (rs *ResultSet) OneOrNone() (row Row, found bool, err error) {
	switch len(rs.rows) {
	case 0:
		return nil, false, nil
	case 1:
		return rs.rows[0], true, nil
	default:
		return nil, false, sqlspec.NewError(sqlspec.KindDataError, fmt.Sprintf("expected zero or one row, got %d", len(rs.rows)), sqlspec.ErrMultipleRows)
	}
}

// Scalar returns the first column of the first row, failing if the
// ResultSet has no rows.
func (rs *ResultSet) Scalar() (any, error) {
	if len(rs.rows) == 0 {
		return nil, sqlspec.NewError(sqlspec.KindDataError, "expected at least one row for scalar()", sqlspec.ErrNoRows)
	}

	row := rs.rows[0]
	if len(row) == 0 {
		return nil, sqlspec.NewError(sqlspec.KindDataError, "row has no columns", nil)
	}

	return row[0], nil
}
