// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package coffeetest

import (
	"github.com/diffeo/go-coffee/coffee"
)

// create makes a coffee and fails the test immediately if that does
// not work.
func (s *Suite) create(name string) coffee.Coffee {
	c, err := s.Coffees.Create(s.Context, name)
	s.Require().NoError(err)
	return c
}

// assertStored checks that the backend currently holds exactly want
// for want.ID.
func (s *Suite) assertStored(want coffee.Coffee) {
	got, err := s.Coffees.Get(s.Context, want.ID)
	if s.NoError(err) {
		s.Equal(want, got)
	}
}

// assertNotFound checks that err reports that coffee id does not
// exist.
func (s *Suite) assertNotFound(err error, id int) {
	var notFound coffee.ErrNoSuchCoffee
	if s.ErrorAs(err, &notFound) {
		s.Equal(id, notFound.ID)
	}
}

// assertConflict checks that err is a version conflict for coffee id
// at version, where the caller expected ifMatch.
func (s *Suite) assertConflict(err error, id, version, ifMatch int) {
	var conflict coffee.ErrVersionConflict
	if s.ErrorAs(err, &conflict) {
		s.Equal(id, conflict.ID)
		s.Equal(version, conflict.Version)
		s.Equal(ifMatch, conflict.IfMatch)
	}
}
