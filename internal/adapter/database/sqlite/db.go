package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"go.opentelemetry.io/otel"

	"todolists/pkg/config"
	"todolists/pkg/db"
)

type DB struct {
	*sql.DB
	QueryBuilder *squirrel.StatementBuilderType
	Changes      *ChangeFeed
}

// New opens the traced database handle, applies the migrations and wraps it
// with the query builder.
func New(cfg config.DatabaseConfig) (*DB, error) {
	dsn := buildDSN(cfg.Path)

	sqlDB, err := otelsql.Open("sqlite3", dsn,
		otelsql.WithDBSystem("sqlite"),
		otelsql.WithDBName("todolists"),
		otelsql.WithTracerProvider(otel.GetTracerProvider()),
	)

	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Path, err)
	}

	if cfg.LogQueries {
		traced := sqlDB
		logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
		sqlDB = sqldblogger.OpenDriver(dsn, traced.Driver(), zerologadapter.New(logger),
			sqldblogger.WithMinimumLevel(sqldblogger.LevelDebug),
		)

		// The logging handle keeps the traced driver, the first pool is unused.
		if err := traced.Close(); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("close traced handle: %w", err)
		}
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 1
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := db.RunMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return Wrap(sqlDB), nil
}

// Wrap builds a DB around an already migrated handle.
func Wrap(sqlDB *sql.DB) *DB {
	queryBuilder := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

	return &DB{
		DB:           sqlDB,
		QueryBuilder: &queryBuilder,
		Changes:      NewChangeFeed(),
	}
}

func buildDSN(path string) string {
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}

	return path + separator + "_foreign_keys=on&_busy_timeout=5000"
}

// WithTx runs fn in a transaction, committing when it returns nil.
func (d *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.BeginTx(ctx, nil)

	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
