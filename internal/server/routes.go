package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"

	"github.com/devanmodhavadiya189/chatapp/internal/delivery"
	"github.com/devanmodhavadiya189/chatapp/internal/domain"
	"github.com/devanmodhavadiya189/chatapp/internal/filestore"
	"github.com/devanmodhavadiya189/chatapp/internal/handlers"
	"github.com/devanmodhavadiya189/chatapp/internal/middleware"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	// Create instances of all application handlers.
	users := do.MustInvoke[domain.UserRepository](s.injector)
	messages := do.MustInvoke[domain.MessageRepository](s.injector)
	router := do.MustInvoke[*delivery.Router](s.injector)
	seen := do.MustInvoke[*delivery.Coordinator](s.injector)
	files := do.MustInvoke[*filestore.Service](s.injector)

	authHandler := handlers.NewAuthHandler(users)
	messageHandler := handlers.NewMessageHandler(users, messages, router, seen)
	fileHandler := handlers.NewFileHandler(files)

	rateLimiter := middleware.RateLimiter()
	requireAuth := middleware.Auth(users)

	// Public auth endpoints.
	auth := s.E.Group("/api/auth")
	auth.POST("/signup", authHandler.Signup, rateLimiter)
	auth.POST("/login", authHandler.Login, rateLimiter)
	auth.POST("/logout", authHandler.Logout)

	// Everything below requires a valid auth cookie.
	auth.GET("/check", authHandler.Check, requireAuth)
	auth.PUT("/profile", authHandler.UpdateProfile, requireAuth)

	msgs := s.E.Group("/api/messages", requireAuth)
	msgs.GET("/users", messageHandler.Sidebar)
	msgs.GET("/:id", messageHandler.Conversation)
	msgs.POST("/send/:id", messageHandler.Send)
	msgs.PUT("/seen/:id", messageHandler.MarkSeen)
	msgs.POST("/upload", fileHandler.Upload)

	// Uploaded attachments are streamed back through the file service so the
	// storage backend stays swappable.
	s.E.GET("/uploads/*", fileHandler.Download)

	s.E.GET("/ws", s.bridge.Handler(), requireAuth)

	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}
