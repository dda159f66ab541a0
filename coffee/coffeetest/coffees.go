// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package coffeetest

import (
	"fmt"
	"sync"

	"github.com/diffeo/go-coffee/coffee"
)

// TestCreate checks that a new coffee gets an ID and version 1.
func (s *Suite) TestCreate() {
	c, err := s.Coffees.Create(s.Context, "Coffee 1")
	if !s.NoError(err) {
		return
	}
	s.NotZero(c.ID)
	s.Equal("Coffee 1", c.Name)
	s.Equal(1, c.Version)
	s.assertStored(c)
}

// TestCreateUniqueIDs checks that every created coffee gets a fresh,
// increasing ID.
func (s *Suite) TestCreateUniqueIDs() {
	seen := make(map[int]bool)
	last := 0
	for i := 0; i < 5; i++ {
		c := s.create(fmt.Sprintf("Coffee %d", i))
		s.False(seen[c.ID], "duplicate ID %v", c.ID)
		s.True(c.ID > last, "ID %v not after %v", c.ID, last)
		s.Equal(1, c.Version)
		seen[c.ID] = true
		last = c.ID
	}
}

// TestCreateMissingName checks that an empty name is rejected and
// nothing is created.
func (s *Suite) TestCreateMissingName() {
	_, err := s.Coffees.Create(s.Context, "")
	s.ErrorIs(err, coffee.ErrMissingName)

	coffees, err := s.Coffees.List(s.Context)
	if s.NoError(err) {
		s.Empty(coffees)
	}
}

// TestCreateWhitespaceName checks that names are only checked for
// emptiness.
func (s *Suite) TestCreateWhitespaceName() {
	c, err := s.Coffees.Create(s.Context, "   ")
	if s.NoError(err) {
		s.Equal("   ", c.Name)
		s.assertStored(c)
	}
}

// TestGet checks that a coffee can be retrieved after creation.
func (s *Suite) TestGet() {
	s.create("Coffee 1")
	c := s.create("Coffee 2")
	s.create("Coffee 3")

	got, err := s.Coffees.Get(s.Context, c.ID)
	if s.NoError(err) {
		s.Equal(c, got)
	}
}

// TestGetNotFound checks that an absent coffee is reported as not
// found, not as a store failure.
func (s *Suite) TestGetNotFound() {
	c := s.create("Coffee 1")

	_, err := s.Coffees.Get(s.Context, c.ID+1)
	s.assertNotFound(err, c.ID+1)
}

// TestListEmpty checks that an empty backend lists no coffees.
func (s *Suite) TestListEmpty() {
	coffees, err := s.Coffees.List(s.Context)
	if s.NoError(err) {
		s.NotNil(coffees)
		s.Len(coffees, 0)
	}
}

// TestList checks that exactly the created coffees are listed, in
// creation order.
func (s *Suite) TestList() {
	want := []coffee.Coffee{
		s.create("Coffee 1"),
		s.create("Coffee 2"),
		s.create("Coffee 3"),
	}

	coffees, err := s.Coffees.List(s.Context)
	if s.NoError(err) {
		s.Equal(want, coffees)
		for _, c := range coffees {
			s.Equal(1, c.Version)
		}
	}
}

// TestUpdate checks a single successful update.
func (s *Suite) TestUpdate() {
	s.create("Coffee 1")
	c := s.create("Coffee 2")

	updated, err := s.Coffees.Update(s.Context, c.ID, "Updated Coffee 2", c.Version)
	if !s.NoError(err) {
		return
	}
	s.Equal(coffee.Coffee{ID: c.ID, Name: "Updated Coffee 2", Version: 2}, updated)
	s.assertStored(updated)
}

// TestUpdateStale walks through a successful update followed by an
// update with the now-stale version.
func (s *Suite) TestUpdateStale() {
	c := s.create("Coffee 1")
	s.Equal(1, c.Version)

	updated, err := s.Coffees.Update(s.Context, c.ID, "Updated", 1)
	if !s.NoError(err) {
		return
	}
	s.Equal(2, updated.Version)
	s.Equal("Updated", updated.Name)

	_, err = s.Coffees.Update(s.Context, c.ID, "X", 1)
	s.assertConflict(err, c.ID, 2, 1)
	s.assertStored(coffee.Coffee{ID: c.ID, Name: "Updated", Version: 2})
}

// TestUpdateConflict checks that a version from the future is also a
// conflict and changes nothing.
func (s *Suite) TestUpdateConflict() {
	c := s.create("Coffee 2")

	_, err := s.Coffees.Update(s.Context, c.ID, "Updated Coffee 2", c.Version+1)
	s.assertConflict(err, c.ID, c.Version, c.Version+1)
	s.assertStored(c)
}

// TestUpdateNotFound checks that updating an absent coffee reports
// it as not found.
func (s *Suite) TestUpdateNotFound() {
	c := s.create("Coffee 1")

	_, err := s.Coffees.Update(s.Context, c.ID+1, "Updated Coffee 2", 1)
	s.assertNotFound(err, c.ID+1)
}

// TestUpdateMissingName checks that an empty name is rejected
// without touching the stored coffee.
func (s *Suite) TestUpdateMissingName() {
	c := s.create("Coffee 1")

	_, err := s.Coffees.Update(s.Context, c.ID, "", c.Version)
	s.ErrorIs(err, coffee.ErrMissingName)
	s.assertStored(c)
}

// TestUpdateSequence checks that versions advance by exactly one per
// update.
func (s *Suite) TestUpdateSequence() {
	c := s.create("Coffee 0")
	for i := 1; i <= 10; i++ {
		name := fmt.Sprintf("Coffee %d", i)
		next, err := s.Coffees.Update(s.Context, c.ID, name, c.Version)
		if !s.NoError(err) {
			return
		}
		s.Equal(c.ID, next.ID)
		s.Equal(c.Version+1, next.Version)
		s.Equal(name, next.Name)
		c = next
	}
	s.assertStored(coffee.Coffee{ID: c.ID, Name: "Coffee 10", Version: 11})
}

// TestUpdateOneOfMany checks that updating one coffee leaves the
// others alone.
func (s *Suite) TestUpdateOneOfMany() {
	c1 := s.create("Coffee 1")
	c2 := s.create("Coffee 2")
	c3 := s.create("Coffee 3")

	_, err := s.Coffees.Update(s.Context, c2.ID, "Updated Coffee 2", c2.Version)
	s.NoError(err)
	s.assertStored(c1)
	s.assertStored(c3)
}

// TestDelete checks that a deleted coffee is gone.
func (s *Suite) TestDelete() {
	c1 := s.create("Coffee 1")
	c2 := s.create("Coffee 2")
	c3 := s.create("Coffee 3")

	err := s.Coffees.Delete(s.Context, c2.ID)
	if !s.NoError(err) {
		return
	}

	_, err = s.Coffees.Get(s.Context, c2.ID)
	s.assertNotFound(err, c2.ID)

	coffees, err := s.Coffees.List(s.Context)
	if s.NoError(err) {
		s.Equal([]coffee.Coffee{c1, c3}, coffees)
	}
}

// TestDeleteNotFound checks that deleting an absent coffee reports
// it as not found.
func (s *Suite) TestDeleteNotFound() {
	c := s.create("Coffee 1")

	err := s.Coffees.Delete(s.Context, c.ID+1)
	s.assertNotFound(err, c.ID+1)
}

// TestDeleteTwice checks that the second delete of a coffee fails.
func (s *Suite) TestDeleteTwice() {
	c := s.create("Coffee 1")

	s.NoError(s.Coffees.Delete(s.Context, c.ID))
	err := s.Coffees.Delete(s.Context, c.ID)
	s.assertNotFound(err, c.ID)
}

// TestUpdateDeleted checks that a deleted coffee cannot be updated.
func (s *Suite) TestUpdateDeleted() {
	c := s.create("Coffee 1")
	s.Require().NoError(s.Coffees.Delete(s.Context, c.ID))

	_, err := s.Coffees.Update(s.Context, c.ID, "Updated", c.Version)
	s.assertNotFound(err, c.ID)
}

// TestDeleteIsPermanent checks that recreating a coffee with the same
// name produces a new coffee, not the old one.
func (s *Suite) TestDeleteIsPermanent() {
	c := s.create("Coffee 1")
	c, err := s.Coffees.Update(s.Context, c.ID, "Coffee 1", c.Version)
	s.Require().NoError(err)
	s.Require().NoError(s.Coffees.Delete(s.Context, c.ID))

	again := s.create("Coffee 1")
	s.NotEqual(c.ID, again.ID)
	s.True(again.ID > c.ID)
	s.Equal(1, again.Version)

	_, err = s.Coffees.Get(s.Context, c.ID)
	s.assertNotFound(err, c.ID)
}

// TestConcurrentUpdates races several updates from the same starting
// version.  Exactly one may win.
func (s *Suite) TestConcurrentUpdates() {
	const workers = 8
	c := s.create("Coffee 1")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []coffee.Coffee
		conflicts int
		failures  []error
	)
	start := make(chan struct{})
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			<-start
			updated, err := s.Coffees.Update(s.Context, c.ID, fmt.Sprintf("Worker %d", i), c.Version)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, updated)
			case coffee.IsConflict(err):
				conflicts++
			default:
				failures = append(failures, err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	s.Empty(failures)
	if s.Len(winners, 1) {
		s.Equal(workers-1, conflicts)
		s.Equal(c.Version+1, winners[0].Version)
		s.assertStored(winners[0])
	}
}

// TestConcurrentCreates checks that concurrent creates never share
// an ID.
func (s *Suite) TestConcurrentCreates() {
	const workers = 8
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[int]bool)
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			c, err := s.Coffees.Create(s.Context, fmt.Sprintf("Coffee %d", i))
			if s.NoError(err) {
				mu.Lock()
				ids[c.ID] = true
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	s.Len(ids, workers)
}
