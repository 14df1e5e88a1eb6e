package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Start runs the HTTP server.
func (s *Server) Start(addr string) {
	go func() {
		if err := s.E.Start(addr); err != nil && err != http.ErrServerClosed {
			s.E.Logger.Fatalf("shutting down the server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server with a timeout.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.Shutdown(ctx)
}

// Shutdown stops the event bridge, closes the message bus and database
// connection, and shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) {
	// Stop the pub/sub subscribers before closing the bus they read from.
	s.cancel()

	if err := s.bus.Close(); err != nil {
		slog.Error("Failed to close message bus", "error", err)
	}
	if err := s.DB.Close(ctx); err != nil {
		slog.Error("Failed to close database connection", "error", err)
	}
	if s.tracingCleanup != nil {
		s.tracingCleanup()
	}
	if err := s.E.Shutdown(ctx); err != nil {
		s.E.Logger.Fatal(err)
	}
}
