// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package redis provides a coffee.Store backed by a Redis server.
//
// Each coffee is a hash holding its name and version.  A sorted set
// keyed by ID lists every live coffee, and a counter hands out new
// IDs.  Every write is a Lua script, so the version comparison and
// the write happen atomically on the server.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/diffeo/go-coffee/coffee"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix is prepended to every key the store touches unless
// NewWithClient is given another one.
const DefaultPrefix = "coffee:"

type redisStore struct {
	client redis.UniversalClient
	prefix string
}

// New connects to the Redis server at address.  The address may be a
// "redis://" or "rediss://" URL, which can carry a password and
// database number, or a plain "host:port".
func New(address string) (coffee.Store, error) {
	// "redis://host" split on its first colon leaves "//host"
	if strings.HasPrefix(address, "//") {
		address = "redis:" + address
	}

	var opts *redis.Options
	if strings.HasPrefix(address, "redis://") || strings.HasPrefix(address, "rediss://") {
		var err error
		opts, err = redis.ParseURL(address)
		if err != nil {
			return nil, err
		}
	} else {
		opts = &redis.Options{Addr: address}
	}

	client := redis.NewClient(opts)
	err := client.Ping(context.Background()).Err()
	if err != nil {
		client.Close()
		return nil, err
	}
	return NewWithClient(client, DefaultPrefix), nil
}

// NewWithClient creates a store that uses an existing client and
// stores its keys under prefix.  Stores with distinct prefixes do not
// see each other's coffees.
func NewWithClient(client redis.UniversalClient, prefix string) coffee.Store {
	return &redisStore{client: client, prefix: prefix}
}

func (s *redisStore) nextIDKey() string {
	return s.prefix + "next_id"
}

func (s *redisStore) idsKey() string {
	return s.prefix + "ids"
}

func (s *redisStore) coffeeKey(id int) string {
	return s.prefix + strconv.Itoa(id)
}

// insertScript stores a new coffee.  KEYS are the ID counter and the
// ID set; ARGV are the key prefix, name, version, and requested ID (0
// to allocate one).  It returns the ID, or -1 if the requested ID is
// already in use.
var insertScript = redis.NewScript(`
local id = tonumber(ARGV[4])
if id == 0 then
  id = redis.call('INCR', KEYS[1])
else
  if redis.call('EXISTS', ARGV[1] .. id) == 1 then
    return -1
  end
  local last = tonumber(redis.call('GET', KEYS[1]) or '0')
  if id > last then
    redis.call('SET', KEYS[1], id)
  end
end
redis.call('HSET', ARGV[1] .. id, 'name', ARGV[2], 'version', ARGV[3])
redis.call('ZADD', KEYS[2], id, id)
return id
`)

// persistScript replaces a coffee if its version matches.  KEYS is
// the coffee hash; ARGV are the expected version, new name, and new
// version.  It returns 0 on success, -1 if the coffee does not exist,
// or the current version on a mismatch.
var persistScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'version')
if not current then
  return -1
end
current = tonumber(current)
if current ~= tonumber(ARGV[1]) then
  return current
end
redis.call('HSET', KEYS[1], 'name', ARGV[2], 'version', ARGV[3])
return 0
`)

// removeScript deletes a coffee hash (KEYS[1]) and its ID (ARGV[1])
// from the ID set (KEYS[2]), returning the number of hashes deleted.
var removeScript = redis.NewScript(`
local n = redis.call('DEL', KEYS[1])
redis.call('ZREM', KEYS[2], ARGV[1])
return n
`)

// fromHash converts the result of HGETALL into a coffee.  An empty
// hash means the key does not exist.
func fromHash(id int, fields map[string]string) (coffee.Coffee, error) {
	if len(fields) == 0 {
		return coffee.Coffee{}, coffee.ErrNoSuchCoffee{ID: id}
	}
	version, err := strconv.Atoi(fields["version"])
	if err != nil {
		return coffee.Coffee{}, fmt.Errorf("coffee %d has bad version %q", id, fields["version"])
	}
	return coffee.Coffee{ID: id, Name: fields["name"], Version: version}, nil
}

func (s *redisStore) FindByID(ctx context.Context, id int) (coffee.Coffee, error) {
	fields, err := s.client.HGetAll(ctx, s.coffeeKey(id)).Result()
	if err != nil {
		return coffee.Coffee{}, err
	}
	return fromHash(id, fields)
}

func (s *redisStore) FindAll(ctx context.Context) ([]coffee.Coffee, error) {
	members, err := s.client.ZRange(ctx, s.idsKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(members))
	for i, member := range members {
		ids[i], err = strconv.Atoi(member)
		if err != nil {
			return nil, err
		}
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.coffeeKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := []coffee.Coffee{}
	for i, cmd := range cmds {
		c, err := fromHash(ids[i], cmd.Val())
		if coffee.IsNotFound(err) {
			// Deleted between the ZRANGE and the HGETALL
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, nil
}

func (s *redisStore) Insert(ctx context.Context, c coffee.Coffee) (coffee.Coffee, error) {
	id, err := insertScript.Run(ctx, s.client,
		[]string{s.nextIDKey(), s.idsKey()},
		s.prefix, c.Name, c.Version, c.ID).Int()
	if err != nil {
		return coffee.Coffee{}, err
	}
	if id < 0 {
		return coffee.Coffee{}, fmt.Errorf("coffee ID %d already in use", c.ID)
	}
	c.ID = id
	return c, nil
}

func (s *redisStore) Persist(ctx context.Context, c coffee.Coffee, expectedVersion int) error {
	status, err := persistScript.Run(ctx, s.client,
		[]string{s.coffeeKey(c.ID)},
		expectedVersion, c.Name, c.Version).Int()
	if err != nil {
		return err
	}
	switch {
	case status < 0:
		return coffee.ErrNoSuchCoffee{ID: c.ID}
	case status > 0:
		return coffee.ErrVersionConflict{
			ID:      c.ID,
			Version: status,
			IfMatch: expectedVersion,
		}
	}
	return nil
}

func (s *redisStore) Remove(ctx context.Context, id int) error {
	n, err := removeScript.Run(ctx, s.client,
		[]string{s.coffeeKey(id), s.idsKey()},
		id).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return coffee.ErrNoSuchCoffee{ID: id}
	}
	return nil
}
