package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/golang-migrate/migrate/v4/database"
)

// sqliteDriver adapts an already-open *sql.DB to migrate's database.Driver.
// migrate's own sqlite driver links modernc.org/sqlite, whose init registers
// the "sqlite" database/sql driver a second time next to the glebarez
// registration the gorm dialector brings in, and the process panics before
// main. This driver keeps the binary on the single glebarez registration.
// The bookkeeping table layout matches migrate's sqlite driver, so databases
// migrated with either are interchangeable.
type sqliteDriver struct {
	db     *sql.DB
	table  string
	locked atomic.Bool
}

func newSQLiteDriver(db *sql.DB, table string) (database.Driver, error) {
	if db == nil {
		return nil, errors.New("database handle is required")
	}
	if table == "" {
		table = "schema_migrations"
	}

	d := &sqliteDriver{db: db, table: table}
	if err := d.ensureVersionTable(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *sqliteDriver) ensureVersionTable() error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (version uint64, dirty bool)`, d.table)
	if _, err := d.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// Open by URL is intentionally unsupported; the migrator always hands over
// its own connection.
func (d *sqliteDriver) Open(string) (database.Driver, error) {
	return nil, errors.New("open by URL is not supported, construct from an existing *sql.DB")
}

func (d *sqliteDriver) Close() error {
	return d.db.Close()
}

func (d *sqliteDriver) Lock() error {
	if !d.locked.CompareAndSwap(false, true) {
		return database.ErrLocked
	}
	return nil
}

func (d *sqliteDriver) Unlock() error {
	d.locked.Store(false)
	return nil
}

func (d *sqliteDriver) Run(migration io.Reader) error {
	script, err := io.ReadAll(migration)
	if err != nil {
		return fmt.Errorf("failed to read migration: %w", err)
	}

	query := strings.TrimSpace(string(script))
	if query == "" {
		return nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	if _, err := tx.Exec(query); err != nil {
		tx.Rollback()
		return fmt.Errorf("migration failed: %w", err)
	}
	return tx.Commit()
}

func (d *sqliteDriver) SetVersion(version int, dirty bool) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin version transaction: %w", err)
	}

	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s`, d.table)); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear version: %w", err)
	}

	// NilVersion is only recorded while dirty, matching migrate's drivers.
	if version >= 0 || (version == database.NilVersion && dirty) {
		insert := fmt.Sprintf(`INSERT INTO %s (version, dirty) VALUES (?, ?)`, d.table)
		if _, err := tx.Exec(insert, version, dirty); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record version: %w", err)
		}
	}

	return tx.Commit()
}

func (d *sqliteDriver) Version() (int, bool, error) {
	var (
		version int
		dirty   bool
	)
	query := fmt.Sprintf(`SELECT version, dirty FROM %s LIMIT 1`, d.table)
	err := d.db.QueryRow(query).Scan(&version, &dirty)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return database.NilVersion, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("failed to read version: %w", err)
	}
	return version, dirty, nil
}

func (d *sqliteDriver) Drop() error {
	rows, err := d.db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, table := range tables {
		if _, err := d.db.Exec(fmt.Sprintf(`DROP TABLE %s`, table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	if len(tables) > 0 {
		if _, err := d.db.Exec(`VACUUM`); err != nil {
			return fmt.Errorf("vacuum after drop failed: %w", err)
		}
	}
	return nil
}
