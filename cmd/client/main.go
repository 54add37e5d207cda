package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/chandan1819/nosql-mcp-server/internal/config"
	"github.com/chandan1819/nosql-mcp-server/internal/database"
	"github.com/chandan1819/nosql-mcp-server/internal/logging"
	"github.com/chandan1819/nosql-mcp-server/internal/persistence"
	"github.com/chandan1819/nosql-mcp-server/internal/schema"
	"github.com/chandan1819/nosql-mcp-server/internal/store"
)

func main() {
	log.SetFlags(0)
	// Library logs stay quiet unless something goes wrong.
	logging.Setup(os.Stderr, "warn", "text")

	cfg := config.LoadConfig()

	dataPath := flag.String("data", cfg.DataPath, "Path of the JSON document file")
	backupDir := flag.String("backups", cfg.BackupDir, "Directory for backups")
	history := flag.String("history", filepath.Join(os.TempDir(), "nosql_mcp_history.tmp"), "Readline history file")
	flag.Parse()

	db, err := store.Open(persistence.NewFileStorage(*dataPath))
	if err != nil {
		log.Fatalf("Failed to open data file %s: %v", *dataPath, err)
	}
	defer db.Close()

	validator := schema.MustNew()

	// Backups are taken on demand only; the server owns the periodic schedule.
	backups := persistence.NewBackupManager(db, *backupDir, 0, cfg.BackupRetention)
	manager := database.NewManager(db, validator,
		database.WithBackups(backups),
		database.WithBulkDeleteWarning(cfg.BulkDeleteWarning))

	log.Printf("Opened %s", *dataPath)

	c := newCLI(manager, os.Stdout)
	if err := c.run(*history); err != nil {
		log.Printf("Client error: %v", err)
	}
}
