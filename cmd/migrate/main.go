package main

// Run database migrations:
//   go run ./cmd/migrate
//   go run ./cmd/migrate -dialect sqlite -sqlite ./data/compliance.db

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"

	"compliance-backend/internal/shared/config"
	"compliance-backend/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()
	dialect := flag.String("dialect", db.DialectPostgres, "postgres or sqlite")
	sqlitePath := flag.String("sqlite", cfg.SQLitePath, "SQLite database path")
	flag.Parse()

	ctx := context.Background()

	var (
		sqlDB *sql.DB
		err   error
	)
	switch *dialect {
	case db.DialectPostgres:
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	case db.DialectSQLite:
		sqlDB, err = db.OpenSQLite(ctx, *sqlitePath)
	default:
		log.Printf("unsupported dialect %q", *dialect)
		os.Exit(2)
	}
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB, *dialect); err != nil {
		log.Printf("failed to run migrations: %v", err)
		os.Exit(1)
	}
	log.Printf("migrations applied (%s)", *dialect)
}
