package result

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/sqlspec/sqlspec"
)

func cols() []Column {
	return []Column{{Name: "id"}, {Name: "name"}}
}

func TestNewRejectsArityMismatch(t *testing.T) {
	_, err := New(cols(), []Row{{1}}, 0, false)
	assert.Error(t, err)
}

func TestRowsAffectedNegativeCoercedToZeroWithWarning(t *testing.T) {
	rs, err := New(cols(), nil, -1, false)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), rs.RowsAffected())
	assert.Equal(t, 1, len(rs.Warnings()))
}

func TestOneFailsOnZeroOrManyRows(t *testing.T) {
	empty, _ := New(cols(), nil, 0, false)
	_, err := empty.One()
	assert.Error(t, err)
	assert.True(t, sqlspec.IsKind(err, sqlspec.KindDataError))

	many, _ := New(cols(), []Row{{1, "a"}, {2, "b"}}, 0, false)
	_, err = many.One()
	assert.Error(t, err)
}

func TestOneOrNoneAcceptsZeroOrOneRow(t *testing.T) {
	empty, _ := New(cols(), nil, 0, false)
	row, found, err := empty.OneOrNone()
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, row)

	one, _ := New(cols(), []Row{{1, "a"}}, 0, false)
	row, found, err = one.OneOrNone()
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, Row{1, "a"}, row)
}

func TestScalarReturnsFirstColumnOfFirstRow(t *testing.T) {
	rs, _ := New(cols(), []Row{{42, "a"}}, 0, false)
	v, err := rs.Scalar()
	assert.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestRowsNotRestartableUnlessDeclared(t *testing.T) {
	rs, _ := New(cols(), []Row{{1, "a"}}, 0, false)

	_, err := rs.Rows()
	assert.NoError(t, err)

	_, err = rs.Rows()
	assert.Error(t, err)
}

func TestRowsRestartableWhenDeclared(t *testing.T) {
	rs, _ := New(cols(), []Row{{1, "a"}}, 0, true)

	_, err := rs.Rows()
	assert.NoError(t, err)

	_, err = rs.Rows()
	assert.NoError(t, err)
}

type user struct {
	ID        int
	Name      string
	Note      *string
	CreatedAt time.Time `db:"created_at"`
}

func TestAsTypeMapsCaseInsensitivelyAndHandlesNull(t *testing.T) {
	columns := []Column{{Name: "id"}, {Name: "name"}, {Name: "note"}, {Name: "created_at"}}
	rs, err := New(columns, []Row{
		{1, "Alice", nil, "2024-01-02T15:04:05Z"},
	}, 0, false)
	assert.NoError(t, err)

	var users []user

	err = rs.AsType(&users, MapOptions{})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(users))
	assert.Equal(t, 1, users[0].ID)
	assert.Equal(t, "Alice", users[0].Name)
	assert.Zero(t, users[0].Note)
	assert.Equal(t, 2024, users[0].CreatedAt.Year())
}

func TestAsTypeRejectsNullIntoNonOptionalField(t *testing.T) {
	columns := []Column{{Name: "id"}}
	rs, _ := New(columns, []Row{{nil}}, 0, false)

	type onlyID struct{ ID int }

	var dest []onlyID

	err := rs.AsType(&dest, MapOptions{})
	assert.Error(t, err)
}
