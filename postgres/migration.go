// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package postgres

import (
	"database/sql"

	migrate "github.com/rubenv/sql-migrate"
)

// This file maintains the database migration code.  See
// https://github.com/rubenv/sql-migrate for details of what goes in
// here.  This runs "outside" the normal store flow, either at initial
// startup or from an external tool.

var migrationSource = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "1-coffee",
			Up: []string{
				// The sequence never hands out the same value
				// twice, even after the row holding it is
				// deleted.  BIGSERIAL makes every Go int on a
				// 64-bit host a valid id to look up.
				`CREATE TABLE coffee(
					id BIGSERIAL PRIMARY KEY,
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
	_, err := migrate.Exec(db, "postgres", migrationSource, migrate.Up)
	return err
}

// Drop clears a database by running all of the migrations in reverse,
// ultimately resulting in dropping all of the tables.
func Drop(db *sql.DB) error {
	_, err := migrate.Exec(db, "postgres", migrationSource, migrate.Down)
	return err
}
