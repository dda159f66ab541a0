// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package redis

import (
	"context"
	"os"
	"testing"

	"github.com/diffeo/go-coffee/coffee"
	"github.com/diffeo/go-coffee/coffee/coffeetest"
	"github.com/redis/go-redis/v9"
	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestFromHash(t *testing.T) {
	c, err := fromHash(3, map[string]string{"name": "Coffee 3", "version": "2"})
	require.NoError(t, err)
	assert.Equal(t, coffee.Coffee{ID: 3, Name: "Coffee 3", Version: 2}, c)

	_, err = fromHash(3, map[string]string{})
	assert.Equal(t, coffee.ErrNoSuchCoffee{ID: 3}, err)

	_, err = fromHash(3, map[string]string{"name": "Coffee 3", "version": "x"})
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	s := &redisStore{prefix: "p:"}
	assert.Equal(t, "p:next_id", s.nextIDKey())
	assert.Equal(t, "p:ids", s.idsKey())
	assert.Equal(t, "p:17", s.coffeeKey(17))
}

// liveClient connects to the Redis server named by
// $COFFEE_TEST_REDIS, skipping the test if it is unset.
func liveClient(t *testing.T) *redis.Client {
	address := os.Getenv("COFFEE_TEST_REDIS")
	if address == "" {
		t.Skip("COFFEE_TEST_REDIS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: address})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { client.Close() })
	return client
}

// newLiveStore creates a store under a fresh random prefix and deletes
// its keys when the test finishes.
func newLiveStore(t *testing.T, client *redis.Client) coffee.Store {
	prefix := "coffeetest:" + uuid.NewV4().String() + ":"
	t.Cleanup(func() {
		ctx := context.Background()
		keys, err := client.Keys(ctx, prefix+"*").Result()
		if err == nil && len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	})
	return NewWithClient(client, prefix)
}

// TestCoffees runs the generic coffee tests against a live Redis.
func TestCoffees(t *testing.T) {
	client := liveClient(t)
	suite.Run(t, &coffeetest.Suite{
		NewCoffees: func(t *testing.T) coffee.Coffees {
			return coffee.NewService(newLiveStore(t, client))
		},
	})
}

func TestLiveInsertExplicitID(t *testing.T) {
	ctx := context.Background()
	store := newLiveStore(t, liveClient(t))

	_, err := store.Insert(ctx, coffee.Coffee{ID: 10, Name: "ten", Version: 1})
	require.NoError(t, err)

	_, err = store.Insert(ctx, coffee.Coffee{ID: 10, Name: "ten again", Version: 1})
	assert.Error(t, err)

	next, err := store.Insert(ctx, coffee.Coffee{Name: "eleven", Version: 1})
	require.NoError(t, err)
	assert.Equal(t, 11, next.ID)
}

func TestLivePersistConditional(t *testing.T) {
	ctx := context.Background()
	store := newLiveStore(t, liveClient(t))

	c, err := store.Insert(ctx, coffee.Coffee{Name: "one", Version: 1})
	require.NoError(t, err)

	err = store.Persist(ctx, coffee.Coffee{ID: c.ID, Name: "two", Version: 2}, 1)
	require.NoError(t, err)

	err = store.Persist(ctx, coffee.Coffee{ID: c.ID, Name: "three", Version: 2}, 1)
	assert.Equal(t, coffee.ErrVersionConflict{ID: c.ID, Version: 2, IfMatch: 1}, err)

	err = store.Persist(ctx, coffee.Coffee{ID: c.ID + 1, Name: "four", Version: 2}, 1)
	assert.Equal(t, coffee.ErrNoSuchCoffee{ID: c.ID + 1}, err)
}

func TestLivePersistRace(t *testing.T) {
	coffeetest.PersistRace(t, newLiveStore(t, liveClient(t)), 16)
}
