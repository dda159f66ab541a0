// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package coffee defines the coffee resource, the contract a
// persistent store must satisfy to hold coffees, and the service that
// enforces the resource's versioning rules on top of such a store.
//
// Coffee objects are plain data.  All behavior lives in Service, which
// is constructed with an explicit Store, and in the Store
// implementations themselves (see the memory, sqlite, postgres, and
// redis packages).  The restserver package publishes a Service over
// HTTP, and the restclient package provides a matching Coffees
// implementation that talks to it.
//
// Versions
//
// Every coffee carries a version number.  A newly created coffee has
// version 1, and each successful update increments the version by
// exactly one.  An update must name the version the caller believes
// is current; if that is not the stored version, the update fails
// with ErrVersionConflict and nothing is written.  Stores are required
// to make the final compare-and-write atomic, so that two concurrent
// updates from the same starting version cannot both succeed.
package coffee

import "context"

// Coffee is a single coffee resource.
type Coffee struct {
	// ID is assigned by the store when the coffee is created and
	// never changes.  IDs are never reused, even after deletion.
	ID int `json:"id"`

	// Name is the human-readable name of the coffee.  It is never
	// empty.
	Name string `json:"name"`

	// Version is 1 when the coffee is created and increases by one
	// on every successful update.
	Version int `json:"version"`
}

// Coffees is the set of operations available on coffee resources.
// Service implements this on top of a Store; the restclient package
// implements it over HTTP.
type Coffees interface {
	// List returns every coffee, in the store's natural order.
	List(ctx context.Context) ([]Coffee, error)

	// Get returns a single coffee.  It returns ErrNoSuchCoffee if
	// there is no coffee with that ID.
	Get(ctx context.Context, id int) (Coffee, error)

	// Create makes a new coffee with version 1 and returns it,
	// including its newly assigned ID.  It returns ErrMissingName
	// if name is empty.
	Create(ctx context.Context, name string) (Coffee, error)

	// Update renames a coffee and increments its version, provided
	// that expectedVersion is the coffee's current version.
	Update(ctx context.Context, id int, name string, expectedVersion int) (Coffee, error)

	// Delete permanently removes a coffee.
	Delete(ctx context.Context, id int) error
}

// Store is the persistence boundary for coffees.  Implementations
// must be safe for concurrent use.
//
// Any error a Store returns other than ErrNoSuchCoffee or
// ErrVersionConflict is treated as a store failure.
type Store interface {
	// FindByID returns the coffee with id, or ErrNoSuchCoffee.
	FindByID(ctx context.Context, id int) (Coffee, error)

	// FindAll returns all coffees ordered by ascending ID.
	FindAll(ctx context.Context) ([]Coffee, error)

	// Insert saves a new coffee.  If c.ID is zero the store
	// assigns a fresh ID; otherwise c.ID is used as given, and it
	// is an error if that ID is already taken.  Returns the coffee
	// as stored.
	Insert(ctx context.Context, c Coffee) (Coffee, error)

	// Persist overwrites the stored coffee with c, but only if the
	// stored version is still expectedVersion.  The comparison and
	// the write must be a single atomic step.  Returns
	// ErrVersionConflict if the stored version differs, or
	// ErrNoSuchCoffee if c.ID no longer exists.
	Persist(ctx context.Context, c Coffee, expectedVersion int) error

	// Remove deletes the coffee with id, or returns
	// ErrNoSuchCoffee if there is none.
	Remove(ctx context.Context, id int) error
}
