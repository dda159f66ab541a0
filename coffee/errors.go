// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package coffee

import (
	"errors"
	"fmt"
)

// ErrMissingName is returned from Create and Update if the requested
// coffee name is empty.
var ErrMissingName = errors.New("Missing name")

// ErrNoSuchCoffee is returned by operations that look up a coffee by
// ID and cannot find it.
type ErrNoSuchCoffee struct {
	ID int
}

func (err ErrNoSuchCoffee) Error() string {
	return fmt.Sprintf("No coffee found with ID %v", err.ID)
}

// ErrVersionConflict is returned from Update if the caller's expected
// version does not match the stored version of the coffee.
type ErrVersionConflict struct {
	// ID is the coffee being updated.
	ID int

	// Version is the stored version at the time of the conflict.
	// It may be zero if the store could not report it.
	Version int

	// IfMatch is the version the caller expected.
	IfMatch int
}

func (err ErrVersionConflict) Error() string {
	return fmt.Sprintf("Version conflict for coffee with ID %v: version = %v, If-Match = %v",
		err.ID, err.Version, err.IfMatch)
}

// ErrStore wraps any failure of the underlying Store.  Op names the
// operation that was being attempted; Err is the store's own error,
// unmodified.
type ErrStore struct {
	Op  string
	Err error
}

func (err *ErrStore) Error() string {
	return err.Op + ": " + err.Err.Error()
}

// Unwrap returns the underlying store error.
func (err *ErrStore) Unwrap() error {
	return err.Err
}

// IsNotFound reports whether err is, or wraps, ErrNoSuchCoffee.
func IsNotFound(err error) bool {
	var notFound ErrNoSuchCoffee
	return errors.As(err, &notFound)
}

// IsConflict reports whether err is, or wraps, ErrVersionConflict.
func IsConflict(err error) bool {
	var conflict ErrVersionConflict
	return errors.As(err, &conflict)
}

// storeError annotates err with op, unless it is one of the errors a
// Store is allowed to return as part of its contract.
func storeError(op string, err error) error {
	if err == nil || IsNotFound(err) || IsConflict(err) {
		return err
	}
	return &ErrStore{Op: op, Err: err}
}
