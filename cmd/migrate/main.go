package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/ratewatch/price-history/pkg/config"
	"github.com/ratewatch/price-history/pkg/postgres"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	client, err := postgres.NewClient(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to initialize postgres client: %v", err)
	}
	defer client.Close()

	if err := runMigrations(ctx, client); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")
}

func runMigrations(ctx context.Context, client postgres.StoreClient) error {
	migrationDir := "internal/infrastructure/postgres/migrations"

	files, err := filepath.Glob(filepath.Join(migrationDir, "*.sql"))
	if err != nil {
		return err
	}

	sort.Strings(files)

	for _, file := range files {
		log.Printf("Running migration: %s", file)

		content, err := os.ReadFile(file)
		if err != nil {
			return err
		}

		if _, err := client.Exec(ctx, string(content)); err != nil {
			return err
		}

		log.Printf("Migration completed: %s", file)
	}

	return nil
}
