package cmd

import (
	"github.com/spf13/cobra"

	"github.com/devanmodhavadiya189/chatapp/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat server",
	Long:  `Starts the HTTP server, WebSocket bridge and delivery engine, and blocks until interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		s := server.New()
		s.RegisterRoutes()

		addr := serveAddr
		if addr == "" {
			addr = s.Cfg.GetAddr()
		}
		s.Start(addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to APP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
