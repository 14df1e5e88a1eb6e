package handlers

import (
	"github.com/devanmodhavadiya189/chatapp/internal/domain"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Message string `json:"message"`
}

// UserResponse is the DTO for a user. The password never leaves the server.
type UserResponse struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	Name       *string `json:"name,omitempty"`
	ProfilePic *string `json:"profilePic,omitempty"`
}

// NewUserResponse creates a UserResponse from a domain.User.
func NewUserResponse(user *domain.User) *UserResponse {
	resp := &UserResponse{
		Email:      user.Email,
		Name:       user.Name,
		ProfilePic: user.ProfilePic,
	}
	if user.ID != nil {
		resp.ID = user.ID.String()
	}
	return resp
}

// SidebarUserResponse is one row of the conversation sidebar: a user plus
// the number of their messages the caller has not read yet.
type SidebarUserResponse struct {
	UserResponse
	UnseenCount int `json:"unseenCount"`
}

// SendMessageResponse is returned after a message is accepted.
type SendMessageResponse struct {
	Message *domain.Message `json:"message"`
}

// MarkSeenResponse reports how many messages an explicit mark-seen call
// actually flipped.
type MarkSeenResponse struct {
	Message      string `json:"message"`
	UpdatedCount int    `json:"updatedCount"`
}

// UploadFileResponse returns the stored file's reference for embedding in
// a follow-up send call.
type UploadFileResponse struct {
	Message string          `json:"message"`
	File    *domain.FileRef `json:"file"`
}
