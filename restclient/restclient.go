// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package restclient provides a coffee.Coffees implementation that
// talks to a REST server, such as the one in the restserver package.
//
// Errors the server reports are converted back into the coffee
// package's error types where possible, so a version conflict on the
// server is a coffee.ErrVersionConflict here too.  HTTP failures that
// do not correspond to one of those come back as ErrorHTTP.
package restclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/diffeo/go-coffee/coffee"
	"github.com/diffeo/go-coffee/restdata"
)

// Client is a coffee.Coffees that talks to a remote server.
type Client struct {
	resource
	Representation restdata.RootData
}

// New creates a new client pointing at the root document at
// baseURL, and retrieves that document.
func New(baseURL string) (*Client, error) {
	return NewWithClient(baseURL, nil)
}

// NewWithClient creates a new client pointing at baseURL that makes
// its requests through client.  If client is nil, http.DefaultClient
// is used.
func NewWithClient(baseURL string, client *http.Client) (*Client, error) {
	var err error
	c := &Client{}
	c.Client = client
	c.URL, err = url.Parse(baseURL)
	if err == nil && (c.URL.Scheme == "" || c.URL.Host == "") {
		err = errors.New("restclient: base URL must be absolute")
	}
	if err == nil {
		err = c.Refresh(context.Background())
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh re-fetches the root document.
func (c *Client) Refresh(ctx context.Context) error {
	c.Representation = restdata.RootData{}
	return c.Call(ctx, request{Method: http.MethodGet, Out: &c.Representation})
}

// List returns every coffee.
func (c *Client) List(ctx context.Context) ([]coffee.Coffee, error) {
	var coffees []coffee.Coffee
	err := c.Call(ctx, request{
		Method:   http.MethodGet,
		Template: c.Representation.CoffeesURL,
		Out:      &coffees,
	})
	if err != nil {
		return nil, err
	}
	if coffees == nil {
		coffees = []coffee.Coffee{}
	}
	return coffees, nil
}

// Get returns a single coffee.
func (c *Client) Get(ctx context.Context, id int) (coffee.Coffee, error) {
	var result coffee.Coffee
	err := c.Call(ctx, request{
		Method:   http.MethodGet,
		Template: c.Representation.CoffeeURL,
		Vars:     idVars(id),
		Out:      &result,
	})
	return result, err
}

// Create makes a new coffee.  An empty name is rejected without
// contacting the server.
func (c *Client) Create(ctx context.Context, name string) (coffee.Coffee, error) {
	var result coffee.Coffee
	if name == "" {
		return result, coffee.ErrMissingName
	}
	err := c.Call(ctx, request{
		Method:   http.MethodPost,
		Template: c.Representation.CoffeeURL,
		In:       restdata.CoffeeRequest{Name: name},
		Out:      &result,
	})
	return result, err
}

// Update renames a coffee, sending expectedVersion as the If-Match:
// header.
func (c *Client) Update(ctx context.Context, id int, name string, expectedVersion int) (coffee.Coffee, error) {
	var result coffee.Coffee
	header := http.Header{}
	header.Set("If-Match", strconv.Itoa(expectedVersion))
	err := c.Call(ctx, request{
		Method:   http.MethodPut,
		Template: c.Representation.CoffeeURL,
		Vars:     idVars(id),
		Header:   header,
		In:       restdata.CoffeeRequest{Name: name},
		Out:      &result,
	})
	return result, err
}

// Delete removes a coffee.
func (c *Client) Delete(ctx context.Context, id int) error {
	return c.Call(ctx, request{
		Method:   http.MethodDelete,
		Template: c.Representation.CoffeeURL,
		Vars:     idVars(id),
	})
}

func idVars(id int) map[string]interface{} {
	return map[string]interface{}{"id": strconv.Itoa(id)}
}
