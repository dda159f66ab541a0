// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/diffeo/go-coffee/coffee"
)

// ErrorStatus describes errors that correspond to specific HTTP status
// codes.
type ErrorStatus interface {
	// HTTPStatus returns the HTTP status code for this error.
	HTTPStatus() int
}

// ErrUnsupportedMediaType is returned from Decode() if the provided
// Content-Type: is unrecognized.  This translates directly into the
// equivalent HTTP 415 error.
type ErrUnsupportedMediaType struct {
	Type string
}

func (e ErrUnsupportedMediaType) Error() string {
	return fmt.Sprintf("Unsupported media type %q", e.Type)
}

// HTTPStatus returns a fixed 415 Unsupported Media Type error code.
func (e ErrUnsupportedMediaType) HTTPStatus() int {
	return http.StatusUnsupportedMediaType
}

// ErrNotFound is a wrapper error that indicates that, due to the
// embedded error, a REST service should return a 404 Not Found error.
type ErrNotFound struct {
	Err error
}

func (e ErrNotFound) Error() string {
	return e.Err.Error()
}

// HTTPStatus returns a fixed 404 Not Found error code.
func (e ErrNotFound) HTTPStatus() int {
	return http.StatusNotFound
}

// ErrBadRequest is returned as an error when there is an error decoding
// HTTP headers or the request body.
type ErrBadRequest struct {
	Err error
}

func (e ErrBadRequest) Error() string {
	return e.Err.Error()
}

// HTTPStatus returns a fixed 400 Bad Request HTTP status code.
func (e ErrBadRequest) HTTPStatus() int {
	return http.StatusBadRequest
}

// HTTPStatus picks the HTTP status code for an error.  Errors that
// know their own status report it; the coffee package's errors map to
// 400, 404, and 409; anything else is a 500.
func HTTPStatus(err error) int {
	if errS, hasStatus := err.(ErrorStatus); hasStatus {
		return errS.HTTPStatus()
	}
	switch {
	case err == coffee.ErrMissingName:
		return http.StatusBadRequest
	case coffee.IsNotFound(err):
		return http.StatusNotFound
	case coffee.IsConflict(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// FromError populates an ErrorResponse from an error value.
func (e *ErrorResponse) FromError(err error) {
	e.Error = err.Error()
}

// FromPanic populates an error response based on a panic.  Typical use
// is:
//
//     defer func() {
//         if obj := recover(); obj != nil {
//             resp := restdata.ErrorResponse{}
//             resp.FromPanic(obj)
//             // write resp out as makes sense
//         }
//    }
func (e *ErrorResponse) FromPanic(obj interface{}) {
	if recoveredError, isError := obj.(error); isError {
		e.Error = recoveredError.Error()
	} else {
		e.Error = fmt.Sprintf("%+v", obj)
	}
}

// ToError converts an error response received with an HTTP status
// code back into an error value.  Where the message matches one of
// the coffee package's errors, that error is reconstructed, so that
// coffee.IsNotFound and coffee.IsConflict work on the client side.
// Server failures come back as *coffee.ErrStore.  Anything else
// returns nil, and the caller should report the raw HTTP failure.
func (e ErrorResponse) ToError(status int) error {
	switch status {
	case http.StatusBadRequest:
		if e.Error == coffee.ErrMissingName.Error() {
			return coffee.ErrMissingName
		}
	case http.StatusNotFound:
		var notFound coffee.ErrNoSuchCoffee
		if _, err := fmt.Sscanf(e.Error, "No coffee found with ID %d", &notFound.ID); err == nil {
			return notFound
		}
	case http.StatusConflict:
		var conflict coffee.ErrVersionConflict
		_, err := fmt.Sscanf(e.Error, "Version conflict for coffee with ID %d: version = %d, If-Match = %d",
			&conflict.ID, &conflict.Version, &conflict.IfMatch)
		if err == nil {
			return conflict
		}
	}
	if status >= 500 {
		op, msg := "remote", e.Error
		if i := strings.Index(e.Error, ": "); i >= 0 {
			op, msg = e.Error[:i], e.Error[i+2:]
		}
		return &coffee.ErrStore{Op: op, Err: errors.New(msg)}
	}
	return nil
}
