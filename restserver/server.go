// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"net/http"

	"github.com/diffeo/go-coffee/coffee"
	"github.com/diffeo/go-coffee/restdata"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter creates a new HTTP handler that processes all coffee
// requests.  All coffee resources are under the URL path root, e.g.
// /coffee/1.  For more control over this setup, create a mux.Router
// and call PopulateRouter instead.
func NewRouter(c coffee.Coffees) http.Handler {
	r := mux.NewRouter()
	PopulateRouter(r, c, logrus.StandardLogger())
	return r
}

// PopulateRouter adds coffee routes to an existing
// github.com/gorilla/mux router object.  This can be used, for
// instance, to place the coffee interface under a subpath:
//
//     import "github.com/diffeo/go-coffee/coffee"
//     import "github.com/diffeo/go-coffee/memory"
//     import "github.com/gorilla/mux"
//     r := mux.NewRouter()
//     s := r.PathPrefix("/api").Subrouter()
//     c := coffee.NewService(memory.New())
//     PopulateRouter(s, c, logrus.StandardLogger())
//
// Panics in handlers are logged to log and reported to the client as
// 500 errors.
func PopulateRouter(r *mux.Router, c coffee.Coffees, log logrus.FieldLogger) {
	api := &restAPI{Coffees: c, Router: r, Log: log}
	api.PopulateRouter(r)
}

// restAPI holds the persistent state for the coffee REST API.
type restAPI struct {
	Coffees coffee.Coffees
	Router  *mux.Router
	Log     logrus.FieldLogger
}

// PopulateRouter adds all coffee URL paths to a router.
func (api *restAPI) PopulateRouter(r *mux.Router) {
	api.PopulateCoffee(r)
	r.Path("/").Name("root").Handler(api.handler(&resourceHandler{
		Context: api.Context,
		Get:     api.RootDocument,
	}))
	r.NotFoundHandler = api.handler(&resourceHandler{
		Context: api.NotFound,
	})
}

// handler finishes setting up a resourceHandler.
func (api *restAPI) handler(h *resourceHandler) *resourceHandler {
	h.Log = api.Log
	return h
}

func (api *restAPI) RootDocument(ctx *context) (interface{}, error) {
	var (
		resp restdata.RootData
		err  error
	)
	resp.CoffeesURL, err = routeURL(api.Router, "coffees")
	if err == nil {
		resp.CoffeeURL, err = routeTemplate(api.Router, "newCoffee", "id")
	}
	return resp, err
}
