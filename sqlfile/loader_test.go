package sqlfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/sqlspec/sqlspec/testhelper"
)

func TestLoadSQLSectionsAndGet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.sql")

	content := testhelper.TrimIndent(t, `
		-- name: get_user
		-- dialect: postgres
		SELECT * FROM users WHERE id = :id

		-- name: list_users
		SELECT * FROM users
	`)

	writeFile(t, path, content)

	l := New(Options{})
	assert.NoError(t, l.Load(dir))

	stmt, err := l.Get("get_user")
	assert.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE id = :id", stmt.Raw())

	_, err = l.Get("list_users")
	assert.NoError(t, err)

	_, err = l.Get("missing")
	assert.Error(t, err)
}

func TestLoadRejectsBadInput(t *testing.T) {
	cases := []struct {
		name  string
		files map[string]string
	}{
		{
			name: "DuplicateNames" + testhelper.GetCaller(t),
			files: map[string]string{
				"a.sql": "-- name: dup\nSELECT 1\n",
				"b.sql": "-- name: dup\nSELECT 2\n",
			},
		},
		{
			name: "MalformedHeader" + testhelper.GetCaller(t),
			files: map[string]string{
				"bad.sql": "-- name:\nSELECT 1\n",
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range c.files {
				writeFile(t, filepath.Join(dir, name), content)
			}

			l := New(Options{})
			assert.Error(t, l.Load(dir))
		})
	}
}

func TestLoadMarkdownEmbeddedQuery(t *testing.T) {
	dir := t.TempDir()
	content := testhelper.TrimIndent(t, `
		# Runbook

		`+"```"+`sql {name: get_active, dialect: postgres}
		SELECT * FROM users WHERE active = true
		`+"```"+`
	`)

	writeFile(t, filepath.Join(dir, "runbook.md"), content)

	l := New(Options{})
	assert.NoError(t, l.Load(dir))

	stmt, err := l.Get("get_active")
	assert.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE active = true", stmt.Raw())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
