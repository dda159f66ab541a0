// Copyright 2016-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package cache provides ID-based caching of coffees in front of some
// other coffee.Store.  FindByID returns a cached coffee if it has
// one; every successful write through the cache updates or evicts the
// cached copy.  FindAll always goes to the underlying store.
//
// Caveats
//
// The cache only sees writes that go through it.  It is correct if
// this process is the only writer to the underlying store, which is
// the case for the memory and SQLite stores and for a single coffeed
// in front of PostgreSQL or Redis.  With several writers, a cached
// coffee can be stale; updates stay correct, since the underlying
// store still does the conditional write and a conflict evicts the
// stale copy, but reads can return old data until then.
//
// Writes through the cache are serialized, so that a slow write
// cannot put an older copy of a coffee back after a newer one.
package cache

import (
	"context"
	"sync"

	"github.com/diffeo/go-coffee/coffee"
)

// DefaultSize is the number of coffees New caches if passed a
// non-positive size.
const DefaultSize = 1024

type cacheStore struct {
	store coffee.Store
	lru   *lru
	write sync.Mutex
}

// New creates a new cache around some other store, holding up to
// size coffees.
func New(store coffee.Store, size int) coffee.Store {
	if size <= 0 {
		size = DefaultSize
	}
	return &cacheStore{
		store: store,
		lru:   newLRU(size),
	}
}

func (c *cacheStore) FindByID(ctx context.Context, id int) (coffee.Coffee, error) {
	return c.lru.Get(id, func(id int) (coffee.Coffee, error) {
		return c.store.FindByID(ctx, id)
	})
}

func (c *cacheStore) FindAll(ctx context.Context) ([]coffee.Coffee, error) {
	return c.store.FindAll(ctx)
}

func (c *cacheStore) Insert(ctx context.Context, item coffee.Coffee) (coffee.Coffee, error) {
	c.write.Lock()
	defer c.write.Unlock()

	item, err := c.store.Insert(ctx, item)
	if err != nil {
		return item, err
	}
	c.lru.Put(item)
	return item, nil
}

func (c *cacheStore) Persist(ctx context.Context, item coffee.Coffee, expectedVersion int) error {
	c.write.Lock()
	defer c.write.Unlock()

	err := c.store.Persist(ctx, item, expectedVersion)
	if err != nil {
		// Whatever we had cached is out of date, or the store is
		// in an unknown state
		c.lru.Remove(item.ID)
		return err
	}
	c.lru.Put(item)
	return nil
}

func (c *cacheStore) Remove(ctx context.Context, id int) error {
	c.write.Lock()
	defer c.write.Unlock()

	err := c.store.Remove(ctx, id)
	c.lru.Remove(id)
	return err
}
