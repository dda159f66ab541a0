// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package sqlite provides a coffee.Store backed by an embedded SQLite
// database, using the pure-Go modernc.org/sqlite driver.
//
// The database handle is limited to a single connection, so writes
// are serialized by database/sql itself.  Updates are still a single
// conditional UPDATE, exactly as in the PostgreSQL store.
package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/diffeo/go-coffee/coffee"
	migrate "github.com/rubenv/sql-migrate"
	// Register the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

// Memory is the path of a private in-memory database.
const Memory = ":memory:"

var migrationSource = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "1-coffee",
			Up: []string{
				// AUTOINCREMENT keeps SQLite from reusing the
				// ID of the most recently deleted row.
				`CREATE TABLE coffee(
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					version INTEGER NOT NULL CHECK (version >= 1)
				)`,
			},
			Down: []string{
				`DROP TABLE coffee`,
			},
		},
	},
}

// Upgrade upgrades a database to the latest database schema version.
func Upgrade(db *sql.DB) error {
	_, err := migrate.Exec(db, "sqlite3", migrationSource, migrate.Up)
	return err
}

type sqliteStore struct {
	db *sql.DB
}

// New opens (creating if needed) the SQLite database at path and
// upgrades its schema.  An empty path or Memory gives a database that
// lives only as long as the store.
func New(path string) (coffee.Store, error) {
	if path == "" {
		path = Memory
	}
	dsn := path
	if path != Memory && !strings.Contains(path, "?") {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// An in-memory database exists per connection; a file database
	// only allows one writer anyway.
	db.SetMaxOpenConns(1)

	err = Upgrade(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

const (
	selectCoffee = "SELECT id, name, version FROM coffee"
	insertCoffee = "INSERT INTO coffee(name, version) VALUES(?, ?)"
	insertWithID = "INSERT INTO coffee(id, name, version) VALUES(?, ?, ?)"
	updateCoffee = "UPDATE coffee SET name=?, version=? WHERE id=? AND version=?"
	deleteCoffee = "DELETE FROM coffee WHERE id=?"
)

func (s *sqliteStore) FindByID(ctx context.Context, id int) (coffee.Coffee, error) {
	var c coffee.Coffee
	err := s.db.QueryRowContext(ctx, selectCoffee+" WHERE id=?", id).
		Scan(&c.ID, &c.Name, &c.Version)
	if err == sql.ErrNoRows {
		return coffee.Coffee{}, coffee.ErrNoSuchCoffee{ID: id}
	}
	if err != nil {
		return coffee.Coffee{}, err
	}
	return c, nil
}

func (s *sqliteStore) FindAll(ctx context.Context) ([]coffee.Coffee, error) {
	rows, err := s.db.QueryContext(ctx, selectCoffee+" ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []coffee.Coffee{}
	for rows.Next() {
		var c coffee.Coffee
		err = rows.Scan(&c.ID, &c.Name, &c.Version)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *sqliteStore) Insert(ctx context.Context, c coffee.Coffee) (coffee.Coffee, error) {
	if c.ID != 0 {
		// The AUTOINCREMENT sequence follows explicit IDs on its own.
		_, err := s.db.ExecContext(ctx, insertWithID, c.ID, c.Name, c.Version)
		if err != nil {
			return coffee.Coffee{}, err
		}
		return c, nil
	}

	result, err := s.db.ExecContext(ctx, insertCoffee, c.Name, c.Version)
	if err != nil {
		return coffee.Coffee{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return coffee.Coffee{}, err
	}
	c.ID = int(id)
	return c, nil
}

func (s *sqliteStore) Persist(ctx context.Context, c coffee.Coffee, expectedVersion int) error {
	result, err := s.db.ExecContext(ctx, updateCoffee, c.Name, c.Version, c.ID, expectedVersion)
	if err != nil {
		return err
	}
	count, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if count == 1 {
		return nil
	}

	current, err := s.FindByID(ctx, c.ID)
	if err != nil {
		return err
	}
	return coffee.ErrVersionConflict{
		ID:      c.ID,
		Version: current.Version,
		IfMatch: expectedVersion,
	}
}

func (s *sqliteStore) Remove(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, deleteCoffee, id)
	if err != nil {
		return err
	}
	count, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return coffee.ErrNoSuchCoffee{ID: id}
	}
	return nil
}
