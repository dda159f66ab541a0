// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"fmt"

	"github.com/gorilla/mux"
)

// routeURL returns the path of the named route, with its variables
// filled in from name/value pairs.
func routeURL(router *mux.Router, name string, pairs ...string) (string, error) {
	route := router.Get(name)
	if route == nil {
		return "", fmt.Errorf("No such route %q", name)
	}
	url, err := route.URL(pairs...)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

// routeTemplate produces an RFC 6570 URI template that extends the
// path of the named route with one optional segment, param.
// Expanding the template without param gives back the route's own
// path.
func routeTemplate(router *mux.Router, name, param string) (string, error) {
	base, err := routeURL(router, name)
	if err != nil {
		return "", err
	}
	return base + "{/" + param + "}", nil
}
