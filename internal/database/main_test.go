package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/surrealdb/surrealdb.go"

	"github.com/devanmodhavadiya189/chatapp/internal/testutils"
)

// setupTestDB creates a test database connection and returns a cleanup function.
// This is a shared helper for all tests in the database package. Tests are
// skipped when no test database is configured.
func setupTestDB(t *testing.T) (*surrealdb.DB, func()) {
	t.Helper()

	cfg := testutils.ConfigForTests(t)

	ctx := context.Background()
	db, err := NewDB(ctx, cfg)
	require.NoError(t, err, "failed to connect to test database")

	return db, func() {
		// Remove all records written during the test run.
		_, _ = surrealdb.Query[any](context.Background(), db, "DELETE message", nil)
		_, _ = surrealdb.Query[any](context.Background(), db, "DELETE user", nil)
		db.Close(context.Background())
	}
}
