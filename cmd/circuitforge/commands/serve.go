package commands

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/voltlab/circuitforge/llm"
	"github.com/voltlab/circuitforge/web"
)

var (
	envFile      string
	templatesDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the circuit builder web server",
	Long: `Start the web server hosting the single page circuit builder.

The page collects a circuit description and an optional BOM upload, queries
the configured model endpoint, renders the block diagram, and serves the
BOM and connection table downloads.

Example:
  # Terminal 1: make sure Ollama is running
  ollama serve

  # Terminal 2: start the builder
  circuitforge serve --port 8080`,
	Run: func(cmd *cobra.Command, args []string) {
		// .env is optional; env vars and flags still apply without it.
		if err := godotenv.Load(envFile); err != nil {
			if !os.IsNotExist(err) {
				log.Fatalf("Error loading env file %s: %v", envFile, err)
			}
		} else {
			log.Println("Loaded env file:", envFile)
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

		cfg := llm.FromEnv()
		app := web.NewApp(llm.New(cfg), cfg.Model, templatesDir)

		host, port := getServeConfig()
		addr := fmt.Sprintf("%s:%d", host, port)
		server := &http.Server{
			Addr:    addr,
			Handler: app.Handler(),
		}

		banner := color.New(color.FgCyan, color.Bold)
		banner.Printf("circuitforge %s\n", Version)
		fmt.Printf("  Builder:  http://%s/\n", addr)
		fmt.Printf("  Endpoint: %s (model %s)\n\n", cfg.BaseURL, cfg.Model)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Server failed to start: %v", err)
			}
		}()

		<-sigChan
		fmt.Println("\nShutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		} else {
			color.Green("Server stopped gracefully")
		}
	},
}

// getServeConfig resolves host and port: flag, then env var, then default.
func getServeConfig() (string, int) {
	host := serveHost
	if host == "" {
		host = os.Getenv("CIRCUITFORGE_HOST")
	}
	if host == "" {
		host = "localhost"
	}

	port := servePort
	if port == 0 {
		if v := os.Getenv("CIRCUITFORGE_PORT"); v != "" {
			if p, err := strconv.Atoi(v); err == nil {
				port = p
			}
		}
	}
	if port == 0 {
		port = 8080
	}
	return host, port
}

func init() {
	serveCmd.Flags().StringVar(&envFile, "env", ".env", "Env file to load before starting")
	serveCmd.Flags().StringVar(&templatesDir, "templates", "", "Template directory (default: ./web/templates)")
	rootCmd.AddCommand(serveCmd)
}
