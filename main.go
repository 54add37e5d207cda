package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chandan1819/nosql-mcp-server/internal/config"
	"github.com/chandan1819/nosql-mcp-server/internal/database"
	"github.com/chandan1819/nosql-mcp-server/internal/logging"
	"github.com/chandan1819/nosql-mcp-server/internal/mcpserver"
	"github.com/chandan1819/nosql-mcp-server/internal/persistence"
	"github.com/chandan1819/nosql-mcp-server/internal/schema"
	"github.com/chandan1819/nosql-mcp-server/internal/store"
)

func main() {
	// stdout carries the MCP stream, so logs go to stderr.
	logging.Setup(os.Stderr, "info", "text")

	// 1. Application configuration
	cfg := config.LoadConfig()
	logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	// 2. Open the document file and load persisted collections
	storage := persistence.NewFileStorage(cfg.DataPath)
	db, err := store.Open(storage)
	if err != nil {
		slog.Error("Fatal error loading persistent data", "path", storage.Path(), "error", err)
		os.Exit(1)
	}
	slog.Info("Data file loaded", "path", storage.Path())

	validator, err := schema.New()
	if err != nil {
		slog.Error("Fatal error compiling collection schemas", "error", err)
		os.Exit(1)
	}

	// 3. Backups
	opts := []database.Option{database.WithBulkDeleteWarning(cfg.BulkDeleteWarning)}
	var backups *persistence.BackupManager
	if cfg.EnableBackups {
		backups = persistence.NewBackupManager(db, cfg.BackupDir, cfg.BackupInterval, cfg.BackupRetention)
		backups.Start()
		opts = append(opts, database.WithBackups(backups))
	}

	manager := database.NewManager(db, validator, opts...)

	// 4. Sample data
	if cfg.SeedSampleData || cfg.ForceReset {
		counts, err := manager.SeedSampleData(cfg.ForceReset)
		if err != nil {
			slog.Error("Failed to insert sample data", "error", err)
		} else {
			slog.Info("Sample data ready", "counts", counts)
		}
	}

	// 5. MCP server on stdio
	srv := mcpserver.New(cfg.ServerName, manager)
	if err := srv.Initialize(); err != nil {
		slog.Error("Failed to initialize MCP server", "error", err)
		os.Exit(1)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	// 6. Graceful shutdown on signal or when the client closes stdin
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigChan:
		slog.Info("Termination signal received, shutting down", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			slog.Error("MCP server stopped with error", "error", err)
			exitCode = 1
		} else {
			slog.Info("MCP server stopped")
		}
	}

	if backups != nil {
		backups.Stop()
	}
	slog.Info("Saving data before application exit...")
	if err := db.Close(); err != nil {
		slog.Error("Error saving data during shutdown", "error", err)
		exitCode = 1
	} else {
		slog.Info("Data saved. Application exiting.")
	}
	os.Exit(exitCode)
}
