// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/diffeo/go-coffee/coffee"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (coffee.Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewWithDB(db), mock
}

func TestFindByIDQuery(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, version FROM coffee WHERE id=$1")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "version"}).
			AddRow(3, "Coffee 3", 2))

	c, err := store.FindByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, coffee.Coffee{ID: 3, Name: "Coffee 3", Version: 2}, c)
}

func TestFindByIDMissing(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, version FROM coffee WHERE id=$1")).
		WithArgs(3).
		WillReturnError(sql.ErrNoRows)

	_, err := store.FindByID(context.Background(), 3)
	assert.Equal(t, coffee.ErrNoSuchCoffee{ID: 3}, err)
}

func TestFindAllOrdered(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, version FROM coffee ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "version"}).
			AddRow(1, "one", 1).
			AddRow(2, "two", 3))

	coffees, err := store.FindAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []coffee.Coffee{
		{ID: 1, Name: "one", Version: 1},
		{ID: 2, Name: "two", Version: 3},
	}, coffees)
}

func TestFindAllEmpty(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, version FROM coffee ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "version"}))

	coffees, err := store.FindAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, coffees)
	assert.Empty(t, coffees)
}

func TestInsertReturnsID(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO coffee(name, version) VALUES($1, $2) RETURNING id")).
		WithArgs("Coffee 1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	c, err := store.Insert(context.Background(), coffee.Coffee{Name: "Coffee 1", Version: 1})
	require.NoError(t, err)
	assert.Equal(t, coffee.Coffee{ID: 7, Name: "Coffee 1", Version: 1}, c)
}

func TestInsertExplicitIDBumpsSequence(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO coffee(id, name, version) VALUES($1, $2, $3)")).
		WithArgs(10, "ten", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SELECT setval(pg_get_serial_sequence('coffee', 'id'), (SELECT MAX(id) FROM coffee))")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	c, err := store.Insert(context.Background(), coffee.Coffee{ID: 10, Name: "ten", Version: 1})
	require.NoError(t, err)
	assert.Equal(t, 10, c.ID)
}

func TestInsertExplicitIDRollsBack(t *testing.T) {
	store, mock := newMock(t)
	duplicate := errors.New("duplicate key")
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO coffee(id, name, version) VALUES($1, $2, $3)")).
		WithArgs(10, "ten", 1).
		WillReturnError(duplicate)
	mock.ExpectRollback()

	_, err := store.Insert(context.Background(), coffee.Coffee{ID: 10, Name: "ten", Version: 1})
	assert.Equal(t, duplicate, err)
}

func TestInsertExplicitIDRetriesSerializationFailure(t *testing.T) {
	store, mock := newMock(t)
	insert := regexp.QuoteMeta("INSERT INTO coffee(id, name, version) VALUES($1, $2, $3)")
	setval := regexp.QuoteMeta("SELECT setval(")

	mock.ExpectBegin()
	mock.ExpectExec(insert).
		WithArgs(10, "ten", 1).
		WillReturnError(&pq.Error{Code: serializationFailure})
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectExec(insert).
		WithArgs(10, "ten", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(setval).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	c, err := store.Insert(context.Background(), coffee.Coffee{ID: 10, Name: "ten", Version: 1})
	require.NoError(t, err)
	assert.Equal(t, 10, c.ID)
}

const persistQuery = "UPDATE coffee SET name=$1, version=$2 WHERE id=$3 AND version=$4"

func TestPersistMatched(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(persistQuery)).
		WithArgs("New", 3, 5, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Persist(context.Background(), coffee.Coffee{ID: 5, Name: "New", Version: 3}, 2)
	assert.NoError(t, err)
}

func TestPersistConflict(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(persistQuery)).
		WithArgs("New", 3, 5, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, version FROM coffee WHERE id=$1")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "version"}).
			AddRow(5, "Other", 4))

	err := store.Persist(context.Background(), coffee.Coffee{ID: 5, Name: "New", Version: 3}, 2)
	assert.Equal(t, coffee.ErrVersionConflict{ID: 5, Version: 4, IfMatch: 2}, err)
}

func TestPersistVanished(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(persistQuery)).
		WithArgs("New", 3, 5, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, version FROM coffee WHERE id=$1")).
		WithArgs(5).
		WillReturnError(sql.ErrNoRows)

	err := store.Persist(context.Background(), coffee.Coffee{ID: 5, Name: "New", Version: 3}, 2)
	assert.Equal(t, coffee.ErrNoSuchCoffee{ID: 5}, err)
}

func TestRemove(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM coffee WHERE id=$1")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM coffee WHERE id=$1")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, store.Remove(context.Background(), 5))
	assert.Equal(t, coffee.ErrNoSuchCoffee{ID: 5}, store.Remove(context.Background(), 5))
}

func TestNonPositiveIDsSkipDatabase(t *testing.T) {
	ctx := context.Background()
	store, _ := newMock(t)

	_, err := store.FindByID(ctx, 0)
	assert.Equal(t, coffee.ErrNoSuchCoffee{ID: 0}, err)

	err = store.Persist(ctx, coffee.Coffee{ID: -1, Name: "New", Version: 2}, 1)
	assert.Equal(t, coffee.ErrNoSuchCoffee{ID: -1}, err)

	assert.Equal(t, coffee.ErrNoSuchCoffee{ID: -7}, store.Remove(ctx, -7))
}

func TestFindByIDBeyondInt32(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, version FROM coffee WHERE id=$1")).
		WithArgs(3000000000).
		WillReturnError(sql.ErrNoRows)

	_, err := store.FindByID(context.Background(), 3000000000)
	assert.Equal(t, coffee.ErrNoSuchCoffee{ID: 3000000000}, err)
}
