// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package restdata defines common data structures shared between the
// restserver and restclient packages.  Generally JSON encodings of
// these are passed across the wire as application/json, or as the
// application/vnd.diffeo.coffee.v1+json MIME type if the client asks
// for it.
//
// API Usage
//
// HTTP GET the root document at its specified URL.  This will return
// a JSON serialization of the RootData object.  That serialization
// has links to other resources; follow these links, possibly filling
// in template values, to get to other resources.  If the system is
// rooted at /, a JSON serialization of RootData will look like
//
//     {
//         "coffees_url": "/coffees",
//         "coffee_url": "/coffee{/id}"
//     }
//
// The coffee_url field is an RFC 6570 URI template.  Expanded with an
// id it names one coffee, "/coffee/3"; expanded without one it is
// "/coffee".
//
// GET the coffees URL to get a JSON array of every coffee.  POST a
// CoffeeRequest to the coffee URL, without an ID, to create a coffee.
// GET, PUT, or DELETE the coffee URL with an ID to work on a single
// coffee.  A single coffee is serialized as
//
//     {"id": 1, "name": "Espresso", "version": 3}
//
// Versions
//
// Every response carrying a single coffee also carries its version as
// the ETag: header, as a bare decimal number.  A PUT must send the
// version it expects to replace in the If-Match: header; if the
// stored coffee has moved on, the PUT fails with 409 Conflict and
// nothing changes.  The server also accepts a quoted If-Match: value.
//
// Errors
//
// Errors are returned as failing HTTP statuses with a body that is an
// encoding of ErrorResponse, a single "error" string.
//
//     400 Bad Request         missing name, bad If-Match:, bad JSON
//     404 Not Found           no such coffee, or no such URL
//     405 Method Not Allowed  method not supported on this URL
//     406 Not Acceptable      no JSON type in Accept:
//     409 Conflict            If-Match: does not match the version
//     415 Unsupported Media   request body is not JSON
//     500 Internal Error      storage failure
package restdata

// V1JSONMediaType is the preferred, most specific MIME type for the
// JSON representation of this content.
const V1JSONMediaType = "application/vnd.diffeo.coffee.v1+json"

// JSONMediaType requests the most recent version of the JSON
// representation of this content.
const JSONMediaType = "application/vnd.diffeo.coffee+json"

// DefaultMediaType is the response type sent to clients that accept
// anything.
const DefaultMediaType = "application/json"

// RootData describes the root resource of the system.
type RootData struct {
	// CoffeesURL points at the list of all coffees.  Only GET is
	// supported here.
	CoffeesURL string `json:"coffees_url"`

	// CoffeeURL is a URL template pointing at a single coffee,
	// with a single "id" parameter.  Expanded with no ID, it is
	// the URL to POST new coffees to.
	CoffeeURL string `json:"coffee_url"`
}

// CoffeeRequest is the body of a POST or PUT request.
type CoffeeRequest struct {
	Name string `json:"name"`
}

// ErrorResponse is the body of every failing response.
type ErrorResponse struct {
	Error string `json:"error"`
}
