// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package postgres

// Generic database/sql support: retryable transactions, row
// iteration, and string-built statements with numbered parameters.

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// serializationFailure is the SQLSTATE PostgreSQL reports when a
// REPEATABLE READ or SERIALIZABLE transaction must be retried.
const serializationFailure = "40001"

// isRetryable reports whether a transaction that failed with err
// should be run again from the start.
func isRetryable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == serializationFailure
}

// withTx runs f inside a REPEATABLE READ transaction, committing if f
// succeeds and rolling back otherwise.  The whole transaction is
// retried for as long as PostgreSQL reports serialization failures,
// so f must not have side effects outside the database.
func withTx(ctx context.Context, db *sql.DB, f func(*sql.Tx) error) error {
	for {
		err := tryTx(ctx, db, f)
		if !isRetryable(err) {
			return err
		}
	}
}

// tryTx makes a single attempt at withTx.
func tryTx(ctx context.Context, db *sql.DB, f func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		// Also runs if f panics
		if rbErr := tx.Rollback(); err == nil && rbErr != sql.ErrTxDone {
			err = rbErr
		}
	}()

	if err = f(tx); err != nil {
		return err
	}
	committed = true
	return tx.Commit()
}

// scanRows calls f once per row of a multi-row result, and always
// closes rows.  f should only call rows.Scan.
func scanRows(rows *sql.Rows, f func() error) error {
	defer rows.Close()
	for rows.Next() {
		if err := f(); err != nil {
			return err
		}
	}
	return rows.Err()
}

// where renders conditions as an ANDed WHERE clause, or nothing.
func where(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

func buildSelect(outputs, tables, conditions []string) string {
	return "SELECT " + strings.Join(outputs, ", ") +
		" FROM " + strings.Join(tables, ", ") +
		where(conditions)
}

func buildUpdate(table string, changes, conditions []string) string {
	query := "UPDATE " + table
	if len(changes) > 0 {
		query += " SET " + strings.Join(changes, ", ")
	}
	return query + where(conditions)
}

func buildDelete(table string, conditions []string) string {
	return "DELETE FROM " + table + where(conditions)
}

// queryParams collects positional parameters for a statement.
type queryParams []interface{}

// Param appends a parameter and returns its placeholder, $1, $2, ...
func (qp *queryParams) Param(param interface{}) string {
	*qp = append(*qp, param)
	return "$" + strconv.Itoa(len(*qp))
}
