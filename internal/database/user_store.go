package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/devanmodhavadiya189/chatapp/internal/domain"
	"github.com/surrealdb/surrealdb.go"
)

// UserStore encapsulates database operations for users using SurrealDB.
// Credentials are handled by the database's record access method, so this
// store never sees password hashes.
type UserStore struct {
	db     *surrealdb.DB
	ns     string
	dbName string
}

// NewUserStore creates a new UserStore.
func NewUserStore(db *surrealdb.DB, ns, dbName string) *UserStore {
	return &UserStore{db: db, ns: ns, dbName: dbName}
}

// FindUserByEmail queries for a single user by their email address.
func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	// Ensure the correct namespace and database are selected for this operation.
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return nil, fmt.Errorf("failed to set database scope: %w", err)
	}

	query := "SELECT * FROM user WHERE email = $email"
	params := map[string]any{"email": email}

	user, err := QueryOne[domain.User](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	return user, nil
}

// SignUp registers a new user through the database's record access method
// and returns a session token.
func (s *UserStore) SignUp(ctx context.Context, user *domain.User, password string) (string, error) {
	// Format matches the JavaScript SDK's implementation
	token, err := s.db.SignUp(ctx, map[string]interface{}{
		"ns":       s.ns,      // lowercase 'ns' to match JS SDK
		"db":       s.dbName,  // lowercase 'db' to match JS SDK
		"ac":       "account", // access control namespace
		"email":    user.Email,
		"password": password,
	})

	// Check for a specific duplicate user error from the database driver.
	if err != nil && strings.Contains(err.Error(), "already exists") {
		return "", domain.ErrUserAlreadyExists // Return our domain-specific error.
	}

	if err == nil && token != "" {
		slog.Info("Successfully signed up user", "email", user.Email)
	}

	return token, err
}

// SignIn authenticates an existing user and returns a session token.
func (s *UserStore) SignIn(ctx context.Context, user *domain.User, password string) (string, error) {
	token, err := s.db.SignIn(ctx, map[string]interface{}{
		"ns":       s.ns,
		"db":       s.dbName,
		"ac":       "account",
		"email":    user.Email,
		"password": password,
	})
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}

	slog.Info("Successfully signed in user", "email", user.Email)
	return token, nil
}

// Authenticate validates a session token and returns the associated user.
func (s *UserStore) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	// This validates the token against the 'account' access method and sets
	// the auth context for subsequent queries on this connection.
	if err := s.db.Authenticate(ctx, token); err != nil {
		// This error indicates the token is invalid or expired.
		return nil, domain.ErrInvalidCredentials
	}

	users, err := Query[domain.User](ctx, s.db, "SELECT * FROM $auth", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated user: %w", err)
	}

	if len(users) == 0 || users[0].ID == nil {
		return nil, fmt.Errorf("no authenticated user found")
	}

	user := &users[0]

	// Clear the password before returning
	user.Password = ""

	return user, nil
}

// FindAllExcept returns every user other than the given one, for the
// conversation sidebar.
func (s *UserStore) FindAllExcept(ctx context.Context, userID string) ([]domain.User, error) {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return nil, fmt.Errorf("failed to set database scope: %w", err)
	}

	query := "SELECT * FROM user WHERE id != type::thing($exclude) ORDER BY email"
	params := map[string]any{"exclude": userID}

	users, err := Query[domain.User](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}

// UpdateProfile updates the mutable profile fields of a user. Nil values
// leave the corresponding field untouched.
func (s *UserStore) UpdateProfile(ctx context.Context, userID string, name, profilePic *string) (*domain.User, error) {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return nil, fmt.Errorf("failed to set database scope: %w", err)
	}

	sets := make([]string, 0, 2)
	params := map[string]any{"id": userID}
	if name != nil {
		sets = append(sets, "name = $name")
		params["name"] = *name
	}
	if profilePic != nil {
		sets = append(sets, "profilePic = $profilePic")
		params["profilePic"] = *profilePic
	}
	if len(sets) == 0 {
		return s.findByID(ctx, userID)
	}

	query := "UPDATE type::thing($id) SET " + strings.Join(sets, ", ") + " RETURN AFTER"
	user, err := QueryOne[domain.User](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	user.Password = ""
	return user, nil
}

// findByID fetches a single user record by its id string.
func (s *UserStore) findByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := QueryOne[domain.User](ctx, s.db, "SELECT * FROM type::thing($id)", map[string]any{"id": userID})
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	user.Password = ""
	return user, nil
}
