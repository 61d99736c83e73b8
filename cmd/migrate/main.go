package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-chat/internal/config"
	"github.com/dvloznov/finance-chat/internal/logger"
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

// Migrator is one database target.
type Migrator interface {
	EnsureSchemaMigrationsTable(ctx context.Context) error
	AppliedMigrations(ctx context.Context) ([]AppliedMigration, error)
	Execute(ctx context.Context, m Migration) error
	Record(ctx context.Context, m Migration, appliedBy string) error
	Close() error
}

// Pattern to match migration files: 0001_name.sql
var migrationFilePattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

func main() {
	var (
		configDir     = flag.String("config", ".", "Directory containing config.yaml")
		target        = flag.String("target", "", "postgres or bigquery (defaults to store.backend)")
		appliedBy     = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
		migrationsDir = flag.String("migrations", "migrations", "Path to the migrations root; the target name is appended")
	)
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithOptions(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	ctx := logger.WithContext(context.Background(), log)

	if *target == "" {
		*target = cfg.Store.Backend
	}

	var (
		migrator     Migrator
		replacements map[string]string
	)
	switch *target {
	case "postgres":
		if cfg.Store.PostgresURL == "" {
			log.Fatal().Msg("Error: store.postgres_url is required for the postgres target")
		}
		migrator, err = newPostgresMigrator(ctx, cfg.Store.PostgresURL)
	case "bigquery":
		if cfg.Store.BigQueryProject == "" {
			log.Fatal().Msg("Error: store.bigquery_project is required for the bigquery target")
		}
		migrator, err = newBigQueryMigrator(ctx, cfg.Store.BigQueryProject, cfg.Store.BigQueryDataset)
		replacements = map[string]string{
			"{{PROJECT_ID}}": cfg.Store.BigQueryProject,
			"{{DATASET_ID}}": cfg.Store.BigQueryDataset,
		}
	default:
		log.Fatal().Str("target", *target).Msg("Error: -target must be postgres or bigquery")
	}
	if err != nil {
		log.Fatal().Err(err).Str("target", *target).Msg("Failed to connect")
	}
	defer migrator.Close()

	dir, err := resolveDir(filepath.Join(*migrationsDir, *target))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to locate migrations")
	}

	migrations, err := readMigrations(dir, replacements, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	log.Info().Int("count", len(migrations)).Str("dir", dir).Msg("Found migration files")

	applied, err := run(ctx, migrator, migrations, *appliedBy)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	if applied == 0 {
		log.Info().Msg("No new migrations to apply. Database is up to date.")
	} else {
		log.Info().Int("applied", applied).Msg("Successfully applied migrations")
	}
}

// run applies every migration not yet recorded and returns how many ran.
func run(ctx context.Context, migrator Migrator, migrations []Migration, appliedBy string) (int, error) {
	log := logger.FromContext(ctx)

	if err := migrator.EnsureSchemaMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("ensuring schema_migrations table: %w", err)
	}

	appliedMigrations, err := migrator.AppliedMigrations(ctx)
	if err != nil {
		return 0, fmt.Errorf("getting applied migrations: %w", err)
	}
	log.Info().Int("count", len(appliedMigrations)).Msg("Found already applied migrations")

	appliedByVersion := make(map[int]AppliedMigration, len(appliedMigrations))
	for _, am := range appliedMigrations {
		appliedByVersion[am.Version] = am
	}

	appliedCount := 0
	for _, migration := range migrations {
		label := fmt.Sprintf("%04d_%s", migration.Version, migration.Name)

		if am, ok := appliedByVersion[migration.Version]; ok {
			if am.Checksum != "" && am.Checksum != migration.Checksum {
				log.Warn().Str("migration", label).Msg("Applied migration was edited after it ran")
			}
			log.Debug().Str("migration", label).Msg("[SKIP] already applied")
			continue
		}

		log.Info().Str("migration", label).Msg("[RUN]")
		if err := migrator.Execute(ctx, migration); err != nil {
			return appliedCount, fmt.Errorf("executing %s: %w", label, err)
		}
		if err := migrator.Record(ctx, migration, appliedBy); err != nil {
			return appliedCount, fmt.Errorf("recording %s: %w", label, err)
		}
		log.Info().Str("migration", label).Msg("[OK]")
		appliedCount++
	}

	return appliedCount, nil
}

// resolveDir also looks two levels up, for runs from inside cmd/migrate.
func resolveDir(dir string) (string, error) {
	if _, err := os.Stat(dir); err == nil {
		return dir, nil
	}
	alt := filepath.Join("..", "..", dir)
	if _, err := os.Stat(alt); err == nil {
		return alt, nil
	}
	return "", fmt.Errorf("migrations directory not found: %s", dir)
}

// readMigrations reads all migration files from dir, sorted by version.
// The checksum covers the file before placeholder replacement, so one
// migration has the same checksum in every project.
func readMigrations(dir string, replacements map[string]string, log zerolog.Logger) ([]Migration, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var migrations []Migration
	seen := make(map[int]string)
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		matches := migrationFilePattern.FindStringSubmatch(file.Name())
		if matches == nil {
			log.Warn().Str("file", file.Name()).Msg("Skipping file with invalid format")
			continue
		}

		version, err := strconv.Atoi(matches[1])
		if err != nil {
			log.Warn().Str("file", file.Name()).Msg("Skipping file with invalid version")
			continue
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %04d: %s and %s", version, other, file.Name())
		}
		seen[version] = file.Name()

		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", file.Name(), err)
		}

		sql := string(content)
		for placeholder, value := range replacements {
			sql = strings.ReplaceAll(sql, placeholder, value)
		}

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     matches[2],
			Filename: file.Name(),
			SQL:      sql,
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}
