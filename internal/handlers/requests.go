package handlers

import (
	"github.com/go-playground/validator/v10"

	"github.com/devanmodhavadiya189/chatapp/internal/domain"
)

// CustomValidator wraps the go-playground/validator library to implement
// Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest is the body of PUT /api/auth/profile. Only supplied
// fields are changed.
type UpdateProfileRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1"`
	ProfilePic *string `json:"profilePic" validate:"omitempty,url"`
}

// SendMessageRequest is the body of POST /api/messages/send/:id. Either
// text or a previously uploaded file reference must be present; the draft
// validation enforces that.
type SendMessageRequest struct {
	Text string          `json:"text"`
	File *domain.FileRef `json:"file"`
}
