// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package memory provides an in-process, in-memory coffee.Store.
// There is no persistence, nor is there any sharing between
// processes.  The entire store is behind a single global semaphore to
// protect against concurrent updates; this trades some performance
// for obvious correctness.
//
// This is mostly intended as a simple reference implementation of
// the store contract that can be used for testing, including
// in-process testing of higher-level components.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/diffeo/go-coffee/coffee"
)

// New creates a new empty in-memory store.
func New() coffee.Store {
	return &memStore{coffees: make(map[int]coffee.Coffee)}
}

type memStore struct {
	sem     sync.Mutex
	coffees map[int]coffee.Coffee
	// lastID is the highest ID ever handed out or inserted.  It
	// only grows, so deleted IDs are never reused.
	lastID int
}

func (s *memStore) FindByID(ctx context.Context, id int) (coffee.Coffee, error) {
	s.sem.Lock()
	defer s.sem.Unlock()

	c, present := s.coffees[id]
	if !present {
		return coffee.Coffee{}, coffee.ErrNoSuchCoffee{ID: id}
	}
	return c, nil
}

func (s *memStore) FindAll(ctx context.Context) ([]coffee.Coffee, error) {
	s.sem.Lock()
	defer s.sem.Unlock()

	result := make([]coffee.Coffee, 0, len(s.coffees))
	for _, c := range s.coffees {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *memStore) Insert(ctx context.Context, c coffee.Coffee) (coffee.Coffee, error) {
	s.sem.Lock()
	defer s.sem.Unlock()

	if c.ID == 0 {
		s.lastID++
		c.ID = s.lastID
	} else {
		if _, taken := s.coffees[c.ID]; taken {
			return coffee.Coffee{}, fmt.Errorf("coffee %d already exists", c.ID)
		}
		if c.ID > s.lastID {
			s.lastID = c.ID
		}
	}
	s.coffees[c.ID] = c
	return c, nil
}

func (s *memStore) Persist(ctx context.Context, c coffee.Coffee, expectedVersion int) error {
	s.sem.Lock()
	defer s.sem.Unlock()

	current, present := s.coffees[c.ID]
	if !present {
		return coffee.ErrNoSuchCoffee{ID: c.ID}
	}
	if current.Version != expectedVersion {
		return coffee.ErrVersionConflict{
			ID:      c.ID,
			Version: current.Version,
			IfMatch: expectedVersion,
		}
	}
	s.coffees[c.ID] = c
	return nil
}

func (s *memStore) Remove(ctx context.Context, id int) error {
	s.sem.Lock()
	defer s.sem.Unlock()

	if _, present := s.coffees[id]; !present {
		return coffee.ErrNoSuchCoffee{ID: id}
	}
	delete(s.coffees, id)
	return nil
}
