// Package migration applies the journal schema with goose. Scripts are
// embedded per dialect.
package migration

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/subeth/subeth/internal/shared/logger"
)

//go:embed scripts/sqlite/*.sql scripts/mysql/*.sql
var scripts embed.FS

// goose keeps dialect and base FS in package state
var gooseMu sync.Mutex

// Manager runs goose migrations for one driver.
type Manager struct {
	driver string
	logger logger.Interface
}

// NewManager creates a migration manager for "sqlite" or "mysql".
func NewManager(driver string, logger logger.Interface) *Manager {
	return &Manager{
		driver: strings.ToLower(driver),
		logger: logger.With("component", "migration.goose"),
	}
}

func (m *Manager) dialect() (string, string, error) {
	switch m.driver {
	case "", "sqlite":
		return "sqlite3", "scripts/sqlite", nil
	case "mysql":
		return "mysql", "scripts/mysql", nil
	default:
		return "", "", fmt.Errorf("unsupported migration driver %q", m.driver)
	}
}

func (m *Manager) run(db *gorm.DB, fn func(sqlDB *sql.DB, dir string) error) error {
	dialect, dir, err := m.dialect()
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(scripts)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return fn(sqlDB, dir)
}

// Up applies every pending migration.
func (m *Manager) Up(db *gorm.DB) error {
	return m.run(db, func(sqlDB *sql.DB, dir string) error {
		currentVersion, err := goose.GetDBVersion(sqlDB)
		if err != nil {
			m.logger.Errorw("failed to get current version", "error", err)
			return fmt.Errorf("failed to get current version: %w", err)
		}

		if err := goose.Up(sqlDB, dir); err != nil {
			m.logger.Errorw("migration failed", "error", err)
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		finalVersion, err := goose.GetDBVersion(sqlDB)
		if err != nil {
			return fmt.Errorf("failed to get final version: %w", err)
		}

		m.logger.Infow("migration completed successfully",
			"from_version", currentVersion,
			"to_version", finalVersion)
		return nil
	})
}

// Down rolls back the given number of migrations.
func (m *Manager) Down(db *gorm.DB, steps int) error {
	return m.run(db, func(sqlDB *sql.DB, dir string) error {
		for i := 0; i < steps; i++ {
			if err := goose.Down(sqlDB, dir); err != nil {
				return fmt.Errorf("failed to run down migration %d: %w", i+1, err)
			}
		}
		m.logger.Infow("down migration completed successfully", "steps", steps)
		return nil
	})
}

// Version returns the applied schema version.
func (m *Manager) Version(db *gorm.DB) (int64, error) {
	var version int64
	err := m.run(db, func(sqlDB *sql.DB, _ string) error {
		v, err := goose.GetDBVersion(sqlDB)
		version = v
		return err
	})
	return version, err
}

// Scripts lists the embedded migration files for the manager's driver.
func (m *Manager) Scripts() ([]string, error) {
	_, dir, err := m.dialect()
	if err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(scripts, dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
