// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package restserver publishes a coffee.Coffees interface as a REST
// service.  The restclient package is a matching client.
//
// The complete REST API is defined in the restdata package.  In
// particular, note that the URLs described here are not actually part
// of the API.
//
// HTTP Considerations
//
// Responses are JSON.  Clients may use the standard HTTP Accept:
// header to request a specific JSON media type; see "MIME Types"
// below.  A client that accepts anything gets application/json.
//
// Every resource that supports GET also supports HEAD.  A method a
// resource does not support gets 405 Method Not Allowed with an
// Allow: header.  A URL that matches no resource gets 404 Not Found.
// Both come with a JSON error body, as do all other errors.
//
// This interface does not support HTTP caching or authentication
// headers.  The ETag: header exists only to carry the coffee version
// for If-Match:.
//
// MIME Types
//
// This interface understands MIME types as follows:
//
//     application/vnd.diffeo.coffee.v1+json
//
// JSON representation of version 1 of this interface.
//
//     application/vnd.diffeo.coffee+json
//     application/json
//     text/json
//
// JSON representation of latest version of this interface.
//
// URL Scheme
//
// The following URLs are defined:
//
//     /
//     /coffees
//     /coffee
//     /coffee/{id}
//
// The ID is always a decimal number; any other final path segment is
// simply a URL that does not exist.
package restserver
