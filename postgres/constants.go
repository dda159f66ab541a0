// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package postgres

// Table and column names.  The schema itself lives in migration.go.
const (
	coffeeTable   = "coffee"
	coffeeID      = "id"
	coffeeName    = "name"
	coffeeVersion = "version"
)

// isColumn produces an "a=b" SQL fragment.
func isColumn(column, value string) string {
	return column + "=" + value
}
