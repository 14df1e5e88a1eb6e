package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devanmodhavadiya189/chatapp/internal/domain"
	"github.com/devanmodhavadiya189/chatapp/internal/middleware"
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	users domain.UserRepository
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users domain.UserRepository) *AuthHandler {
	return &AuthHandler{users: users}
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "All fields are required and the password must be at least 8 characters"})
	}

	newUser := &domain.User{
		Email: req.Email,
		Name:  &req.Name,
	}

	token, err := h.users.SignUp(c.Request().Context(), newUser, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "User already exists"})
		}
		slog.Error("Error creating user", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Could not create your account"})
	}

	if err := middleware.SetAuthToken(c, token); err != nil {
		slog.Error("Failed to save session after signup", "email", req.Email, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}

	created, err := h.users.FindUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		// The account exists and the session is set; fall back to what we know.
		slog.Warn("Could not load user after signup", "email", req.Email, "error", err)
		return c.JSON(http.StatusCreated, NewUserResponse(newUser))
	}
	return c.JSON(http.StatusCreated, NewUserResponse(created))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Email and password are required"})
	}

	token, err := h.users.SignIn(c.Request().Context(), &domain.User{Email: req.Email}, req.Password)
	if err != nil {
		slog.Warn("Failed login attempt", "email", req.Email)
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid email or password"})
	}

	if err := middleware.SetAuthToken(c, token); err != nil {
		slog.Error("Failed to save session after login", "email", req.Email, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}

	user, err := h.users.FindUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		slog.Error("Could not load user after login", "email", req.Email, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
	return c.JSON(http.StatusOK, NewUserResponse(user))
}

// Logout handles POST /api/auth/logout by expiring the cookie session.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := middleware.SetAuthToken(c, ""); err != nil {
		slog.Error("Failed to clear session on logout", "error", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Check handles GET /api/auth/check and returns the authenticated user.
func (h *AuthHandler) Check(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return c.JSON(http.StatusOK, NewUserResponse(user))
}

// UpdateProfile handles PUT /api/auth/profile.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil || user.ID == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid profile fields"})
	}
	if req.Name == nil && req.ProfilePic == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "No updates provided"})
	}

	updated, err := h.users.UpdateProfile(c.Request().Context(), user.ID.String(), req.Name, req.ProfilePic)
	if err != nil {
		slog.Error("Failed to update profile", "user_id", user.ID.String(), "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, NewUserResponse(updated))
}
