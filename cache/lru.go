// Copyright 2016-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package cache

// This file provides a simple LRU cache of coffees, keyed by ID.

import (
	"container/list"
	"sync"

	"github.com/diffeo/go-coffee/coffee"
)

// lru is a least-recently-used cache with a fixed capacity.  The cache
// can be safely accessed from multiple goroutines.
type lru struct {
	size      int
	lock      sync.RWMutex
	evictList *list.List
	index     map[int]*list.Element
}

func newLRU(size int) *lru {
	return &lru{
		size:      size,
		evictList: list.New(),
		index:     make(map[int]*list.Element),
	}
}

// Get retrieves an item from the cache.  If it is not present, calls
// the fetch function, and if that succeeds, saves the item and
// returns it.  This should return an error only if the item is not
// present and the fetch function returns an error.
func (lru *lru) Get(id int, fetch func(int) (coffee.Coffee, error)) (coffee.Coffee, error) {
	// This sadly happens under a writer lock, since we need to move
	// the item to the front of the list if it is present
	lru.lock.Lock()
	defer lru.lock.Unlock()

	// Is it there?
	if element, present := lru.index[id]; present {
		lru.evictList.MoveToBack(element)
		return element.Value.(coffee.Coffee), nil
	}

	// Otherwise call the fetch function
	item, err := fetch(id)
	if err != nil {
		return item, err
	}
	lru.add(item)
	return item, nil
}

// Put adds an item to the LRU cache, possibly evicting something.
func (lru *lru) Put(item coffee.Coffee) {
	lru.lock.Lock()
	defer lru.lock.Unlock()

	// Are we just updating an existing item?
	if element, present := lru.index[item.ID]; present {
		element.Value = item
		lru.evictList.MoveToBack(element)
		return
	}

	// Otherwise add it
	lru.add(item)
}

// Remove takes an item out of the cache.  It does nothing if that ID
// is not cached.
func (lru *lru) Remove(id int) {
	lru.lock.Lock()
	defer lru.lock.Unlock()

	if element, present := lru.index[id]; present {
		delete(lru.index, id)
		lru.evictList.Remove(element)
	}
}

// Len returns the number of cached items.
func (lru *lru) Len() int {
	lru.lock.RLock()
	defer lru.lock.RUnlock()
	return len(lru.index)
}

// add is an internal helper, running under the write lock, that adds a
// new item to the cache.  The item is known to not already exist.
func (lru *lru) add(item coffee.Coffee) {
	element := lru.evictList.PushBack(item)
	lru.index[item.ID] = element

	// If this caused the cache to go over size, start evicting items
	for len(lru.index) > lru.size {
		head := lru.evictList.Front()
		item := head.Value.(coffee.Coffee)
		delete(lru.index, item.ID)
		lru.evictList.Remove(head)
	}
}
