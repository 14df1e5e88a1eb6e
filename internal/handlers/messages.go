package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devanmodhavadiya189/chatapp/internal/delivery"
	"github.com/devanmodhavadiya189/chatapp/internal/domain"
	"github.com/devanmodhavadiya189/chatapp/internal/middleware"
)

// MessageHandler handles conversation and message requests.
type MessageHandler struct {
	users    domain.UserRepository
	messages domain.MessageRepository
	router   *delivery.Router
	seen     *delivery.Coordinator
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(users domain.UserRepository, messages domain.MessageRepository, router *delivery.Router, seen *delivery.Coordinator) *MessageHandler {
	return &MessageHandler{
		users:    users,
		messages: messages,
		router:   router,
		seen:     seen,
	}
}

// Sidebar handles GET /api/messages/users: every other user, each with the
// caller's count of unread messages from them.
func (h *MessageHandler) Sidebar(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil || user.ID == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	ctx := c.Request().Context()
	userID := user.ID.String()

	others, err := h.users.FindAllExcept(ctx, userID)
	if err != nil {
		slog.Error("Failed to load sidebar users", "user_id", userID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}

	rows := make([]SidebarUserResponse, 0, len(others))
	for i := range others {
		other := &others[i]
		row := SidebarUserResponse{UserResponse: *NewUserResponse(other)}

		if other.ID != nil {
			count, err := h.messages.CountUnseen(ctx, other.ID.String(), userID)
			if err != nil {
				// A missing badge count should not take down the sidebar.
				slog.Error("Failed to count unseen messages",
					"user_id", userID,
					"peer_id", other.ID.String(),
					"error", err)
			} else {
				row.UnseenCount = count
			}
		}
		rows = append(rows, row)
	}

	return c.JSON(http.StatusOK, rows)
}

// Conversation handles GET /api/messages/:id. Fetching a conversation also
// marks it read, matching what a client does when it opens a chat.
func (h *MessageHandler) Conversation(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil || user.ID == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	peerID := c.Param("id")
	if peerID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Peer ID is required"})
	}
	ctx := c.Request().Context()
	userID := user.ID.String()

	messages, err := h.messages.FindConversation(ctx, userID, peerID)
	if err != nil {
		slog.Error("Failed to load conversation", "user_id", userID, "peer_id", peerID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}

	if _, err := h.seen.MarkSeen(ctx, userID, peerID); err != nil {
		// The fetched messages are still returned; read state catches up on
		// the next call.
		slog.Error("Failed to mark conversation seen on fetch", "user_id", userID, "peer_id", peerID, "error", err)
	}

	return c.JSON(http.StatusOK, messages)
}

// Send handles POST /api/messages/send/:id.
func (h *MessageHandler) Send(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil || user.ID == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	receiverID := c.Param("id")
	if receiverID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Receiver ID is required"})
	}

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body"})
	}

	ctx := c.Request().Context()
	draft := &domain.Draft{
		SenderID:   user.ID.String(),
		ReceiverID: receiverID,
		Text:       req.Text,
		File:       req.File,
	}

	msg, err := h.messages.Create(ctx, draft)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyMessage) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Please provide either text or a file to send a message, or both"})
		}
		slog.Error("Failed to persist message", "sender_id", draft.SenderID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}

	delivered := h.router.Deliver(ctx, msg)

	return c.JSON(http.StatusCreated, SendMessageResponse{Message: delivered})
}

// MarkSeen handles PUT /api/messages/seen/:id, where :id is the sender
// whose messages the caller has read.
func (h *MessageHandler) MarkSeen(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil || user.ID == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	senderID := c.Param("id")
	if senderID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Sender ID is required"})
	}

	count, err := h.seen.MarkSeen(c.Request().Context(), user.ID.String(), senderID)
	if err != nil {
		slog.Error("Failed to mark messages seen", "user_id", user.ID.String(), "sender_id", senderID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, MarkSeenResponse{
		Message:      "Messages marked as seen",
		UpdatedCount: count,
	})
}
