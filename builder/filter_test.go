package builder

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/sqlspec/sqlspec"
)

func TestPaginationAppendsLimitOffset(t *testing.T) {
	stmt := sqlspec.NewStatement("SELECT * FROM users").WithFilter(Pagination(10, 20))
	resolved := stmt.Resolved()

	assert.Equal(t, "SELECT * FROM users LIMIT :flt_limit OFFSET :flt_offset", resolved.Raw())
	assert.Equal(t, 10, resolved.Named()["flt_limit"])
	assert.Equal(t, 20, resolved.Named()["flt_offset"])
}

func TestPaginationNoOpWhenBothNonPositive(t *testing.T) {
	stmt := sqlspec.NewStatement("SELECT * FROM users").WithFilter(Pagination(0, 0))
	resolved := stmt.Resolved()

	assert.Equal(t, "SELECT * FROM users", resolved.Raw())
}

func TestPaginationFingerprintIgnoresConcreteValue(t *testing.T) {
	a := sqlspec.NewStatement("SELECT * FROM users").WithFilter(Pagination(10, 20))
	b := sqlspec.NewStatement("SELECT * FROM users").WithFilter(Pagination(50, 100))

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestPaginationFingerprintChangesWithPresence(t *testing.T) {
	withOffset := sqlspec.NewStatement("SELECT * FROM users").WithFilter(Pagination(10, 20))
	withoutOffset := sqlspec.NewStatement("SELECT * FROM users").WithFilter(Pagination(10, 0))

	assert.NotEqual(t, withOffset.Fingerprint(), withoutOffset.Fingerprint())
}

func TestSearchAndTenantComposeWithAnd(t *testing.T) {
	stmt := sqlspec.NewStatement("SELECT * FROM users").
		WithFilter(Tenant("org_id", "acme")).
		WithFilter(Search("name", "LIKE", "%ada%"))

	resolved := stmt.Resolved()

	assert.Equal(t,
		"SELECT * FROM users WHERE org_id = :flt_tenant_org_id AND name LIKE :flt_search_name",
		resolved.Raw())
	assert.Equal(t, "acme", resolved.Named()["flt_tenant_org_id"])
	assert.Equal(t, "%ada%", resolved.Named()["flt_search_name"])
}

func TestOrderByDirectionDefaultsAscending(t *testing.T) {
	stmt := sqlspec.NewStatement("SELECT * FROM users").WithFilter(OrderByDirection("name", ""))
	resolved := stmt.Resolved()

	assert.Equal(t, "SELECT * FROM users ORDER BY name ASC", resolved.Raw())
}

func TestWherePredicateFilterAppendsRenderedPredicate(t *testing.T) {
	stmt := sqlspec.NewStatement("SELECT * FROM users").
		WithFilter(WherePredicate(Col("active").Eq(true)))

	resolved := stmt.Resolved()

	assert.Equal(t, "SELECT * FROM users WHERE active = :b1", resolved.Raw())
	assert.Equal(t, true, resolved.Named()["b1"])
}
