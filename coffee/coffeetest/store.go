// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package coffeetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/diffeo/go-coffee/coffee"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// PersistRace creates a coffee directly in store, then has racers
// goroutines all call store.Persist on it from version 1 at once.
// Exactly one of them must succeed, and every other one must see a
// version conflict at version 2.  This bypasses coffee.Service, so it
// checks the conditional write in the store itself.
func PersistRace(t *testing.T, store coffee.Store, racers int) {
	ctx := context.Background()
	c, err := store.Insert(ctx, coffee.Coffee{Name: "race", Version: 1})
	require.NoError(t, err)

	start := make(chan struct{})
	errs := make([]error, racers)
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = store.Persist(ctx, coffee.Coffee{
				ID:      c.ID,
				Name:    fmt.Sprintf("racer %d", i),
				Version: 2,
			}, 1)
		}(i)
	}
	close(start)
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			assert.Equal(t, -1, winner, "racer %d also won", i)
			winner = i
			continue
		}
		assert.Equal(t, coffee.ErrVersionConflict{ID: c.ID, Version: 2, IfMatch: 1}, err,
			"racer %d", i)
	}
	require.NotEqual(t, -1, winner, "no racer won")

	got, err := store.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, coffee.Coffee{
		ID:      c.ID,
		Name:    fmt.Sprintf("racer %d", winner),
		Version: 2,
	}, got)
}
