// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package coffeetest provides generic functional tests for the
// coffee.Coffees interface.  A typical backend test needs to supply a
// constructor for an empty backend and run the suite:
//
//     package mybackend_test
//
//     import (
//             "testing"
//             "github.com/diffeo/go-coffee/coffee"
//             "github.com/diffeo/go-coffee/coffee/coffeetest"
//             "github.com/stretchr/testify/suite"
//     )
//
//     func TestCoffees(t *testing.T) {
//             suite.Run(t, &coffeetest.Suite{
//                     NewCoffees: func(t *testing.T) coffee.Coffees {
//                             return coffee.NewService(mybackend.New())
//                     },
//             })
//     }
package coffeetest

import (
	"context"
	"testing"

	"github.com/diffeo/go-coffee/coffee"
	"github.com/stretchr/testify/suite"
)

// Suite is the generic coffee backend test suite.
type Suite struct {
	suite.Suite

	// NewCoffees creates an empty backend for a single test.  It is
	// called once per test with that test's *testing.T, so it may
	// use t.TempDir() and t.Cleanup().  It is set by importing
	// packages.
	NewCoffees func(t *testing.T) coffee.Coffees

	// Coffees is the backend under test for the current test.
	Coffees coffee.Coffees

	// Context is passed to every call to Coffees.
	Context context.Context
}

// SetupTest creates a fresh backend before each test.
func (s *Suite) SetupTest() {
	s.Context = context.Background()
	s.Coffees = s.NewCoffees(s.T())
}
