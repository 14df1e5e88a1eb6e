package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devanmodhavadiya189/chatapp/internal/handlers"
	"github.com/devanmodhavadiya189/chatapp/internal/middleware"
	"github.com/devanmodhavadiya189/chatapp/internal/server"
	"github.com/devanmodhavadiya189/chatapp/internal/testutils"
)

// setupIntegrationTest boots a full server instance against the test
// database and returns the server, an httptest wrapper around it, and a
// cleanup function to be deferred. Tests are skipped when no test database
// is configured.
func setupIntegrationTest(t *testing.T) (*server.Server, *httptest.Server, func()) {
	t.Helper()

	testutils.ConfigForTests(t)

	s := server.New()
	s.RegisterRoutes()

	testServer := httptest.NewServer(s.E)

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		testServer.Close()
		s.Shutdown(shutdownCtx)
	}

	return s, testServer, cleanup
}

// signupUser registers a fresh user through the public API and returns the
// new user's record ID along with the session cookie for subsequent requests.
func signupUser(t *testing.T, serverURL, email, password string) (string, *http.Cookie) {
	t.Helper()

	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
		"name":     "Integration Tester",
	})
	require.NoError(t, err)

	res, err := http.Post(serverURL+"/api/auth/signup", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode, "signup should succeed")

	var user handlers.UserResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&user))
	require.NotEmpty(t, user.ID)

	for _, c := range res.Cookies() {
		if c.Name == middleware.SessionName {
			return user.ID, c
		}
	}
	t.Fatalf("signup response did not set the %s cookie", middleware.SessionName)
	return "", nil
}

// uniqueEmail avoids collisions across test runs against a shared database.
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}
