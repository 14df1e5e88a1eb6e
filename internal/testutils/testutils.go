package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"

	"github.com/devanmodhavadiya189/chatapp/internal/config"
	"github.com/devanmodhavadiya189/chatapp/internal/logging"
)

// ConfigForTests loads .env.test from the project root, applies it to the
// test's environment, and returns the resulting config. Tests that need a
// database are skipped when neither .env.test nor the environment provides
// a SurrealDB endpoint.
func ConfigForTests(t *testing.T) config.Provider {
	t.Helper()

	// Find the project root by looking for go.mod to reliably locate .env.test.
	path, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
			break
		}
		if path == filepath.Dir(path) {
			t.Fatalf("could not find project root with go.mod")
		}
		path = filepath.Dir(path)
	}

	env, err := godotenv.Read(filepath.Join(path, ".env.test"))
	if err == nil {
		// t.Setenv scopes the variables to this test and restores them after.
		for key, value := range env {
			t.Setenv(key, value)
		}
	}

	if os.Getenv("SURREAL_URL") == "" {
		t.Skip("SURREAL_URL not set and no .env.test found; skipping integration test")
	}

	logging.New()

	return config.New()
}
