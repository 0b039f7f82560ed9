// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

package store

import (
	"embed"
	"errors"
	"io/fs"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	// pgx5:// driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// schemaRunner is the part of *migrate.Migrate the Migrator drives.
type schemaRunner interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Close() (source error, database error)
}

// Migrator applies the embedded users schema.
type Migrator struct {
	m schemaRunner
}

// NewMigrator opens a Migrator against databaseURL. postgres:// and
// postgresql:// URLs are accepted and handed to the pgx5 driver.
func NewMigrator(databaseURL string) (*Migrator, error) {
	src, err := iofs.New(migrationsFS, migrationsDir)
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").Wrap(err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(databaseURL))
	if err != nil {
		_ = src.Close() //nolint:errcheck // init error takes precedence
		return nil, oops.Code("MIGRATION_INIT_FAILED").Wrap(err)
	}
	return &Migrator{m: m}, nil
}

func migrateURL(databaseURL string) string {
	scheme, rest, ok := strings.Cut(databaseURL, "://")
	if ok && (scheme == "postgres" || scheme == "postgresql") {
		return "pgx5://" + rest
	}
	return databaseURL
}

// ignoreNoChange treats "already at the target version" as success.
func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	if err := ignoreNoChange(m.m.Up()); err != nil {
		return oops.Code("MIGRATION_UP_FAILED").Wrap(err)
	}
	return nil
}

// Down rolls back every migration, dropping the users table and its rows.
func (m *Migrator) Down() error {
	if err := ignoreNoChange(m.m.Down()); err != nil {
		return oops.Code("MIGRATION_DOWN_FAILED").Wrap(err)
	}
	return nil
}

// Version reports the applied schema version; 0 means nothing is applied.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	return version, dirty, nil
}

// Force records version as applied and clean without running anything.
// It is the recovery path after a failed migration was repaired by hand.
func (m *Migrator) Force(version int) error {
	if version < 0 {
		return oops.Code("INVALID_VERSION").With("version", version).Errorf("version must be non-negative")
	}
	if err := m.m.Force(version); err != nil {
		return oops.Code("MIGRATION_FORCE_FAILED").With("version", version).Wrap(err)
	}
	return nil
}

// Close releases the migration source and the database connection.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	var component string
	switch {
	case srcErr != nil && dbErr != nil:
		component = "both"
	case srcErr != nil:
		component = "source"
	case dbErr != nil:
		component = "database"
	default:
		return nil
	}
	return oops.Code("MIGRATION_CLOSE_FAILED").With("component", component).Wrap(errors.Join(srcErr, dbErr))
}

// PendingMigrations lists, in ascending order, the versions Up would apply.
func (m *Migrator) PendingMigrations() ([]uint, error) {
	current, _, err := m.Version()
	if err != nil {
		return nil, oops.With("operation", "get pending migrations").Wrap(err)
	}
	idx, err := embeddedIndex()
	if err != nil {
		return nil, oops.With("operation", "get pending migrations").Wrap(err)
	}

	var pending []uint
	for _, v := range idx.versions {
		if v > current {
			pending = append(pending, v)
		}
	}
	return pending, nil
}

// LatestVersion returns the highest embedded migration version, or 0.
func LatestVersion() (uint, error) {
	idx, err := embeddedIndex()
	if err != nil || len(idx.versions) == 0 {
		return 0, err
	}
	return idx.versions[len(idx.versions)-1], nil
}

// MigrationName returns the NNNNNN_name stem of an embedded migration, or ""
// when no migration has that version.
func MigrationName(version uint) (string, error) {
	idx, err := embeddedIndex()
	if err != nil {
		return "", err
	}
	return idx.names[version], nil
}

type migrationIndex struct {
	versions []uint
	names    map[uint]string
}

var embeddedIndex = sync.OnceValues(func() (migrationIndex, error) {
	return indexMigrations(migrationsFS, migrationsDir)
})

// indexMigrations collects the NNNNNN_name.up.sql files under dir. Files that
// are not up migrations are ignored; a malformed version prefix is an error.
func indexMigrations(fsys fs.FS, dir string) (migrationIndex, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return migrationIndex{}, oops.Code("MIGRATION_LIST_FAILED").With("dir", dir).Wrap(err)
	}

	idx := migrationIndex{names: make(map[uint]string)}
	for _, entry := range entries {
		stem, ok := strings.CutSuffix(entry.Name(), ".up.sql")
		if !ok {
			continue
		}
		prefix, _, _ := strings.Cut(stem, "_")
		v, err := strconv.ParseUint(prefix, 10, 0)
		if err != nil {
			return migrationIndex{}, oops.Code("MIGRATION_LIST_FAILED").With("file", entry.Name()).Wrap(err)
		}
		idx.names[uint(v)] = stem
		idx.versions = append(idx.versions, uint(v))
	}
	slices.Sort(idx.versions)
	return idx, nil
}
