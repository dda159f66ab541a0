// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package backend provides a standard way to construct a coffee store
// based on command-line flags.
package backend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/diffeo/go-coffee/coffee"
	"github.com/diffeo/go-coffee/memory"
	"github.com/diffeo/go-coffee/postgres"
	"github.com/diffeo/go-coffee/redis"
	"github.com/diffeo/go-coffee/sqlite"
)

// Implementations lists the names of the known store
// implementations.
var Implementations = []string{"memory", "sqlite", "postgres", "redis"}

// Backend describes user-visible parameters to store coffee data.
// This implements the flag.Value interface, and so a typical use is
//
//     func main() {
//         backend := backend.Backend{"memory", ""}
//         flag.Var(&backend, "backend", "impl:address of coffee storage")
//         flag.Parse()
//         store, err := backend.Store()
//     }
//
// The same methods make it a cli.Generic for urfave/cli.
type Backend struct {
	// Implementation holds the name of the implementation; for
	// instance, "memory".
	Implementation string

	// Address holds some backend-specific address, such as a
	// database connect string.
	Address string
}

// Store creates a new coffee store.  This generally should be only
// called once.  If the backend has in-process state, such as a
// database connection pool or an in-memory store, calling this
// multiple times will create multiple copies of that state.  In
// particular, if b.Implementation is "memory", multiple calls to this
// will create multiple independent coffee "worlds".
//
// The address is interpreted by the implementation:
//
//     memory            ignored
//     sqlite            database file path; empty is in-memory
//     postgres          PostgreSQL connection string or URL
//     redis             "host:port" or redis:// URL
func (b *Backend) Store() (coffee.Store, error) {
	switch b.Implementation {
	case "memory":
		return memory.New(), nil
	case "sqlite":
		return sqlite.New(b.Address)
	case "postgres":
		return postgres.New(b.Address)
	case "redis":
		return redis.New(b.Address)
	default:
		return nil, fmt.Errorf("unknown coffee backend %q", b.Implementation)
	}
}

// String renders a backend description as a string.
func (b *Backend) String() string {
	if b.Address == "" {
		return b.Implementation
	}
	return b.Implementation + ":" + b.Address
}

// Set parses a string into an existing backend description.  The
// string should be of the form "implementation:address", where
// address can be any string.  Set checks to see if the provided
// implementation is any of the known implementations, and returns an
// appropriate error if not.
//
// This is part of the flag.Value interface.  Note that Set does not
// attempt to validate the b.Address part of the string or attempt to
// actually make a connection; Store does that.
func (b *Backend) Set(param string) error {
	if param == "" {
		return errors.New("must specify a backend type")
	}
	parts := strings.SplitN(param, ":", 2)
	implementation, address := parts[0], ""
	if len(parts) == 2 {
		address = parts[1]
	}
	if !known(implementation) {
		return fmt.Errorf("unknown coffee backend %q (want one of %v)",
			implementation, strings.Join(Implementations, ", "))
	}
	b.Implementation = implementation
	b.Address = address
	return nil
}

func known(implementation string) bool {
	for _, name := range Implementations {
		if name == implementation {
			return true
		}
	}
	return false
}
