package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wikiquiz/wikiquiz/internal/config"
	"github.com/wikiquiz/wikiquiz/internal/home"
	"github.com/wikiquiz/wikiquiz/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the wikiquiz server",
	Long: `Start the wikiquiz HTTP server.

The server provides:
  - /api/message - The typed message protocol (quiz generation, page data, settings)
  - /health      - Basic server health check
  - /api/status  - Providers, rate limiter state, current page

Configuration is hot-reloaded when the config file changes.

Examples:
  wikiquiz serve                 # Start on default port 8080
  wikiquiz serve --port 3000     # Start on custom port
  wikiquiz serve --host 0.0.0.0  # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Load config with hot reload
		resolved := cfgFile
		if resolved == "" && h.ConfigExists() {
			resolved = h.ConfigPath()
		}
		cm, err := config.NewManager(resolved)
		if err != nil {
			return err
		}
		cm.WatchConfig()

		// Create server
		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			ConfigManager: cm,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
