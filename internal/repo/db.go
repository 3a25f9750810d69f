// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and schema migrations.
package repo

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	otelgorm "gorm.io/plugin/opentelemetry/tracing"

	"github.com/astree/pulse/internal/domain"
)

// ErrNotFound is the repo-level sentinel for missing rows. It aliases GORM's
// sentinel so callers can use errors.Is with either.
var ErrNotFound = gorm.ErrRecordNotFound

// IsNotFound reports whether err denotes a missing row.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
// When tracing is true the GORM OpenTelemetry plugin is installed so query
// spans join the request traces.
func OpenSQLite(path string, tracing bool) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if tracing {
		if err := db.Use(otelgorm.NewPlugin(otelgorm.WithoutMetrics())); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// AutoMigrate creates or updates the engine's tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Reaction{},
		&domain.ReactionCount{},
		&domain.Notification{},
		&domain.Employee{},
		&domain.Post{},
	)
}
