package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	s, err := Open(Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.NoError(t, s.Close())

	s, err = Open(Options{Backend: BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "budgetly.db")})
	require.NoError(t, err)
	assert.NoError(t, s.Close())

	_, err = Open(Options{Backend: "mongo"})
	assert.ErrorContains(t, err, "unknown data backend")
}
