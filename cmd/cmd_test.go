package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/nemopss/budgetly/models"
	"github.com/nemopss/budgetly/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func useSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "budgetly.db")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	t.Setenv("JWT_SECRET", "test-secret")
	return path
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "budgetly dev\n", out)
}

func TestInvalidConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BUDGETLY_JWT_SECRET", "")

	_, err := run(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestMigrateAndCreateAdmin(t *testing.T) {
	path := useSQLite(t)

	_, err := run(t, "migrate", "--log-level", "error")
	require.NoError(t, err)

	out, err := run(t, "create-admin", "--email", "Root@Example.com", "--password", "secret1", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Created admin root@example.com")

	db, err := sqlite.NewDatabase(path)
	require.NoError(t, err)
	defer db.Close()

	u, err := db.FindUserByEmail(context.Background(), "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
}

func TestImportOFX(t *testing.T) {
	path := useSQLite(t)
	ctx := context.Background()

	db, err := sqlite.NewDatabase(path)
	require.NoError(t, err)
	user := &models.User{FullName: "An", Email: "an@example.com", Password: "x", Status: true, Role: models.RoleUser}
	require.NoError(t, db.CreateUser(ctx, user))
	cat := &models.Category{Name: "Groceries", Status: true}
	require.NoError(t, db.CreateCategory(ctx, cat))
	require.NoError(t, db.Close())

	statement := filepath.Join("testdata", "statement.ofx")
	args := []string{"import-ofx", "--email", "AN@example.com", "--category", strconv.FormatInt(cat.ID, 10), "--log-level", "error", statement}

	out, err := run(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 transactions (0 already imported, 1 credits skipped)")

	out, err = run(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 transactions (2 already imported, 1 credits skipped)")

	db, err = sqlite.NewDatabase(path)
	require.NoError(t, err)
	defer db.Close()
	txs, err := db.ListTransactions(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestExpandFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.qfx", "b.qfx", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	files, err := expandFiles([]string{filepath.Join(dir, "*.qfx")})
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = expandFiles([]string{filepath.Join(dir, "missing.ofx")})
	assert.Error(t, err)
}
