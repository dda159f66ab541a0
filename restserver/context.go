// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/diffeo/go-coffee/restdata"
	"github.com/gorilla/mux"
)

// errUnmarshal is returned if the put/post contract is violated and
// a handler function is passed the wrong type.
var errUnmarshal = restdata.ErrBadRequest{
	Err: errors.New("Invalid input format"),
}

// errMissingIfMatch is returned from context.IfMatch() if the request
// has no If-Match: header.
var errMissingIfMatch = restdata.ErrBadRequest{
	Err: errors.New("Missing If-Match header"),
}

// errNoRoute is returned for URLs that do not match any route.
var errNoRoute = restdata.ErrNotFound{
	Err: errors.New("Not found"),
}

// context holds all of the information that can be extracted from
// URL parameters and request headers.
type context struct {
	// Request is the original HTTP request.
	Request *http.Request

	// ID is the coffee ID from the URL, if there is one.
	ID int
}

func (api *restAPI) Context(req *http.Request) (ctx *context, err error) {
	ctx = &context{Request: req}
	vars := mux.Vars(req)

	if id, present := vars["id"]; present {
		ctx.ID, err = strconv.Atoi(id)
		if err != nil {
			// The route only matches digits, so this is an
			// ID too large for an int
			err = errNoRoute
		}
	}
	return
}

// NotFound is the context function for requests that match no route.
func (api *restAPI) NotFound(req *http.Request) (*context, error) {
	return nil, errNoRoute
}

// IfMatch returns the version named in the If-Match: header.  The
// version may be a bare integer or a quoted one.
func (ctx *context) IfMatch() (int, error) {
	header := ctx.Request.Header.Get("If-Match")
	if header == "" {
		return 0, errMissingIfMatch
	}
	value := strings.TrimSpace(header)
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
	}
	version, err := strconv.Atoi(value)
	if err != nil {
		return 0, restdata.ErrBadRequest{
			Err: errors.New("Invalid If-Match header " + strconv.Quote(header)),
		}
	}
	return version, nil
}
