package domain

import (
	"context"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// User represents the core user model in the application domain.
type User struct {
	ID         *surrealmodels.RecordID `json:"id,omitempty"`
	Email      string                  `json:"email"`
	Password   string                  `json:"password,omitempty"`
	Name       *string                 `json:"name,omitempty"`
	ProfilePic *string                 `json:"profilePic,omitempty"`
}

// UserRepository defines the contract for user data storage operations.
// It lives in the domain because it's a requirement OF the domain, not
// of the database implementation.
type UserRepository interface {
	SignUp(ctx context.Context, user *User, password string) (string, error)
	SignIn(ctx context.Context, user *User, password string) (string, error)
	Authenticate(ctx context.Context, token string) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	// FindAllExcept returns every user other than the given one, for the
	// conversation sidebar.
	FindAllExcept(ctx context.Context, userID string) ([]User, error)
	UpdateProfile(ctx context.Context, userID string, name, profilePic *string) (*User, error)
}
