// migrate applies the SQL migrations in ./migrations in filename order.
// Applied files are tracked in the schema_migrations table, so rerunning
// is safe.
//
// Usage: go run ./cmd/migrate
package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"billing-backend/internal/db"
	"billing-backend/internal/logger"
)

func main() {
	_ = godotenv.Load()
	logger.Setup()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		log.Fatal().Err(err).Msg("create schema_migrations")
	}

	files, err := filepath.Glob("migrations/*.sql")
	if err != nil {
		log.Fatal().Err(err).Msg("list migrations")
	}
	sort.Strings(files)

	for _, file := range files {
		name := filepath.Base(file)

		var applied bool
		if err := pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`, name,
		).Scan(&applied); err != nil {
			log.Fatal().Err(err).Str("file", name).Msg("check migration")
		}
		if applied {
			log.Info().Str("file", name).Msg("already applied")
			continue
		}

		sql, err := os.ReadFile(file)
		if err != nil {
			log.Fatal().Err(err).Str("file", name).Msg("read migration")
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("begin")
		}
		if _, err := tx.Exec(ctx, string(sql)); err != nil {
			_ = tx.Rollback(ctx)
			log.Fatal().Err(err).Str("file", name).Msg("apply migration")
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (filename) VALUES ($1)`, name,
		); err != nil {
			_ = tx.Rollback(ctx)
			log.Fatal().Err(err).Str("file", name).Msg("record migration")
		}
		if err := tx.Commit(ctx); err != nil {
			log.Fatal().Err(err).Str("file", name).Msg("commit")
		}

		log.Info().Str("file", name).Msg("applied")
	}
}
