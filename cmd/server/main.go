package main

import (
	"github.com/devanmodhavadiya189/chatapp/internal/server"
)

func main() {
	// Create a new server instance.
	s := server.New()

	// Register all application routes.
	s.RegisterRoutes()

	// Start the server.
	s.Start(s.Cfg.GetAddr())
}
