package main

import (
	"flag"
	"log"
	"os"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/johnquangdev/meeting-copilot/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-copilot/pkg/config"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding the SQL migrations")
	down := flag.Bool("down", false, "roll back instead of applying")
	steps := flag.Int("steps", 0, "number of migrations to apply or roll back (0 = all when applying, 1 when rolling back)")
	status := flag.Bool("status", false, "list applied migrations and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if *status {
		records, err := database.MigrationStatus(db)
		if err != nil {
			log.Fatalf("Failed to read migration records: %v", err)
		}
		for _, r := range records {
			log.Printf("✅ %s applied at %s\n", r.Id, r.AppliedAt.Format("2006-01-02 15:04:05"))
		}
		return
	}

	direction := migrate.Up
	limit := *steps
	if *down {
		direction = migrate.Down
		if limit == 0 {
			limit = 1
		}
	}

	if _, err := database.Migrate(db, *dir, direction, limit); err != nil {
		log.Printf("Failed to apply migrations: %v", err)
		os.Exit(1)
	}
}
