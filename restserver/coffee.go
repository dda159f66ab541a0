// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"fmt"
	"strconv"

	"github.com/diffeo/go-coffee/coffee"
	"github.com/diffeo/go-coffee/restdata"
	"github.com/gorilla/mux"
)

// entity wraps a single coffee with its location and version headers.
func (api *restAPI) entity(c coffee.Coffee, created bool) (interface{}, error) {
	result := responseEntity{
		Created: created,
		ETag:    strconv.Itoa(c.Version),
		Body:    c,
	}
	var err error
	result.Location, err = routeURL(api.Router, "coffee", "id", strconv.Itoa(c.ID))
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CoffeeList gets a list of all coffees known in the system.
func (api *restAPI) CoffeeList(ctx *context) (interface{}, error) {
	return api.Coffees.List(ctx.Request.Context())
}

// CoffeePost creates a new coffee.
func (api *restAPI) CoffeePost(ctx *context, in interface{}) (interface{}, error) {
	req, valid := in.(restdata.CoffeeRequest)
	if !valid {
		return nil, errUnmarshal
	}
	c, err := api.Coffees.Create(ctx.Request.Context(), req.Name)
	if err != nil {
		return nil, err
	}
	return api.entity(c, true)
}

// CoffeeGet retrieves an existing coffee.
func (api *restAPI) CoffeeGet(ctx *context) (interface{}, error) {
	c, err := api.Coffees.Get(ctx.Request.Context(), ctx.ID)
	if err != nil {
		return nil, err
	}
	return api.entity(c, false)
}

// CoffeePut renames an existing coffee, if the If-Match: header
// matches its current version.
func (api *restAPI) CoffeePut(ctx *context, in interface{}) (interface{}, error) {
	req, valid := in.(restdata.CoffeeRequest)
	if !valid {
		return nil, errUnmarshal
	}
	ifMatch, err := ctx.IfMatch()
	if err != nil {
		return nil, err
	}
	c, err := api.Coffees.Update(ctx.Request.Context(), ctx.ID, req.Name, ifMatch)
	if err != nil {
		return nil, err
	}
	return api.entity(c, false)
}

// CoffeeDelete destroys an existing coffee.
func (api *restAPI) CoffeeDelete(ctx *context) (interface{}, error) {
	err := api.Coffees.Delete(ctx.Request.Context(), ctx.ID)
	if err != nil {
		return nil, err
	}
	return responseText(fmt.Sprintf("Deleted coffee %d", ctx.ID)), nil
}

// PopulateCoffee adds coffee-specific routes to a router.  r should
// be rooted at the root of the coffee URL tree, e.g. "/".
func (api *restAPI) PopulateCoffee(r *mux.Router) {
	r.Path("/coffees").Name("coffees").Handler(api.handler(&resourceHandler{
		Context: api.Context,
		Get:     api.CoffeeList,
	}))
	r.Path("/coffee").Name("newCoffee").Handler(api.handler(&resourceHandler{
		Representation: restdata.CoffeeRequest{},
		Context:        api.Context,
		Post:           api.CoffeePost,
	}))
	r.Path("/coffee/{id:[0-9]+}").Name("coffee").Handler(api.handler(&resourceHandler{
		Representation: restdata.CoffeeRequest{},
		Context:        api.Context,
		Get:            api.CoffeeGet,
		Put:            api.CoffeePut,
		Delete:         api.CoffeeDelete,
	}))
}
