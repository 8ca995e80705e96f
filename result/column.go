// Package result implements the Result Model (spec.md §4.6): a
// driver-agnostic ResultSet holding column metadata and rows, with typed
// projections (one row, a scalar, a mapped record, a columnar Arrow
// export) layered on top of the same row storage.
package result

// Column describes one column in a ResultSet: its name, its declared
// database type (when the driver can report one), whether it is known to
// be nullable, and the source table it came from when derivable.
type Column struct {
	Name         string
	DeclaredType string
	Nullable     bool
	SourceTable  string
}
