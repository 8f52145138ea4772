package main

import (
	"context"
	"crypto/sha256"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/dvloznov/finance-assistant/internal/config"
	"github.com/dvloznov/finance-assistant/internal/ledger/postgres"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/dvloznov/finance-assistant/migrations"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// Migration represents a single migration file
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// AppliedMigration represents a migration that has already been applied
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

// Pattern to match migration files: 0001_name.sql
var filenamePattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

// errChecksumMismatch means an applied migration file was edited afterwards.
var errChecksumMismatch = errors.New("checksum mismatch")

var (
	envFile     = flag.String("env", ".env", "Optional .env file to load before reading the environment")
	databaseURL = flag.String("database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	appliedBy   = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	dryRun      = flag.Bool("dry-run", false, "List pending migrations without applying them")
)

func main() {
	flag.Parse()

	log := logger.NewWithWriter(os.Stderr)

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	url := cfg.DatabaseURL
	if *databaseURL != "" {
		url = *databaseURL
	}
	if url == "" {
		log.Fatal().Msg("Error: -database-url flag or DATABASE_URL is required")
	}

	ctx := context.Background()

	pool, err := postgres.Open(ctx, url)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := migrate(ctx, pool, migrations.Postgres, log); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}

// DB is the subset of *pgxpool.Pool the migrator uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

func migrate(ctx context.Context, db DB, fsys fs.FS, log zerolog.Logger) error {
	// Ensure schema_migrations table exists
	if err := ensureSchemaMigrationsTable(ctx, db); err != nil {
		return fmt.Errorf("ensuring schema_migrations table: %w", err)
	}

	all, err := readMigrations(fsys, log)
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	log.Info().Int("count", len(all)).Msg("Found migration files")

	applied, err := getAppliedMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("getting applied migrations: %w", err)
	}
	log.Info().Int("count", len(applied)).Msg("Found already applied migrations")

	todo, err := pending(all, applied)
	if err != nil {
		return err
	}

	for _, m := range todo {
		mlog := log.With().Int("version", m.Version).Str("name", m.Name).Logger()
		if *dryRun {
			mlog.Info().Msg("[PENDING]")
			continue
		}

		mlog.Info().Msg("[RUN]")
		if err := apply(ctx, db, m); err != nil {
			return fmt.Errorf("applying %04d_%s: %w", m.Version, m.Name, err)
		}
		mlog.Info().Msg("[OK]")
	}

	switch {
	case len(todo) == 0:
		log.Info().Msg("No new migrations to apply. Database is up to date.")
	case *dryRun:
		log.Info().Int("count", len(todo)).Msg("Dry run: migrations pending")
	default:
		log.Info().Int("count", len(todo)).Msg("Successfully applied migrations")
	}
	return nil
}

// ensureSchemaMigrationsTable creates the schema_migrations table if it doesn't exist
func ensureSchemaMigrationsTable(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version     INTEGER PRIMARY KEY,
			name        TEXT        NOT NULL,
			applied_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			checksum    TEXT,
			applied_by  TEXT
		)`)
	return err
}

// readMigrations reads all migration files from the root of fsys
func readMigrations(fsys fs.FS, log zerolog.Logger) ([]Migration, error) {
	files, err := fs.Glob(fsys, "*/*.sql")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}
	if len(files) == 0 {
		files, err = fs.Glob(fsys, "*.sql")
		if err != nil {
			return nil, fmt.Errorf("listing migrations: %w", err)
		}
	}

	var out []Migration
	seen := make(map[int]string)
	for _, file := range files {
		base := path.Base(file)
		matches := filenamePattern.FindStringSubmatch(base)
		if matches == nil {
			log.Warn().Str("file", file).Msg("Skipping file with invalid format")
			continue
		}

		version, err := strconv.Atoi(matches[1])
		if err != nil {
			log.Warn().Str("file", file).Msg("Skipping file with invalid version")
			continue
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("version %04d used by both %s and %s", version, prev, base)
		}
		seen[version] = base

		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", file, err)
		}

		out = append(out, Migration{
			Version:  version,
			Name:     matches[2],
			Filename: base,
			SQL:      string(content),
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	// Sort by version
	sort.Slice(out, func(i, j int) bool {
		return out[i].Version < out[j].Version
	})
	return out, nil
}

// pending returns the migrations not yet applied. An applied migration whose
// file changed since is an error.
func pending(all []Migration, applied []AppliedMigration) ([]Migration, error) {
	appliedByVersion := make(map[int]AppliedMigration, len(applied))
	for _, am := range applied {
		appliedByVersion[am.Version] = am
	}

	var todo []Migration
	for _, m := range all {
		am, ok := appliedByVersion[m.Version]
		if !ok {
			todo = append(todo, m)
			continue
		}
		if am.Checksum != "" && am.Checksum != m.Checksum {
			return nil, fmt.Errorf("%04d_%s: %w", m.Version, m.Name, errChecksumMismatch)
		}
	}
	return todo, nil
}

// getAppliedMigrations retrieves the list of already applied migrations
func getAppliedMigrations(ctx context.Context, db DB) ([]AppliedMigration, error) {
	rows, err := db.Query(ctx, `
		SELECT version, name, applied_at, COALESCE(checksum, ''), COALESCE(applied_by, '')
		FROM schema_migrations
		ORDER BY version ASC`)
	if err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var am AppliedMigration
		if err := rows.Scan(&am.Version, &am.Name, &am.AppliedAt, &am.Checksum, &am.AppliedBy); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		applied = append(applied, am)
	}
	return applied, rows.Err()
}

// apply executes a migration and records it in one transaction.
func apply(ctx context.Context, db DB, m Migration) error {
	return pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			return fmt.Errorf("executing: %w", err)
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO schema_migrations (version, name, checksum, applied_by)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (version) DO NOTHING`,
			m.Version, m.Name, m.Checksum, *appliedBy)
		if err != nil {
			return fmt.Errorf("recording: %w", err)
		}
		return nil
	})
}
