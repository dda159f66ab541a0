// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

// This file contains a REST skeleton framework.
//
// The bulk of this is dealing with HTTP content type negotiation, and
// providing a standard way to deal with input and output values.
// This could probably be made more generic: the major variables are
// the type canonicalization map, the context builder, and specific
// codecs.
//
// Another more generic solution out there is
// https://github.com/jchannon/negotiator.  This only deals with
// output type negotiation, forces all JSON-ish output to report
// itself as "application/json", and doesn't deal well with other HTTP
// status codes.

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/diffeo/go-coffee/restdata"
	"github.com/sirupsen/logrus"
)

// typeMap lists the response types we can produce.  All of them are
// the same JSON encoding.
var typeMap = map[string]string{
	"text/json":              restdata.V1JSONMediaType,
	"application/json":       restdata.V1JSONMediaType,
	restdata.JSONMediaType:   restdata.V1JSONMediaType,
	restdata.V1JSONMediaType: restdata.V1JSONMediaType,
}

// errBadAccept is returned from negotiateResponse() if the Accept:
// header is malformed (and no more specific error applies).
var errBadAccept = errors.New("Invalid Accept: header")

// errNotAcceptable is returned from negotiateResponse() if the Accept:
// header does not mention any media types we can actually return.
type errNotAcceptable struct{}

func (e errNotAcceptable) Error() string {
	return "No acceptable representation for response"
}

func (e errNotAcceptable) HTTPStatus() int {
	return http.StatusNotAcceptable
}

// errMethodNotAllowed is used within the resourceHandler implementation
// to flag an error if a particular HTTP method is not allowed.  This
// corresponds exactly to the 405 Method Not Allowed HTTP status code.
type errMethodNotAllowed struct {
	Method string
}

func (e errMethodNotAllowed) Error() string {
	return fmt.Sprintf("Method %v not allowed", e.Method)
}

func (e errMethodNotAllowed) HTTPStatus() int {
	return http.StatusMethodNotAllowed
}

// responseEntity is returned as a value response from handler
// functions that return a single versioned resource.
type responseEntity struct {
	// Created is true if this is a newly created resource.
	Created bool

	// Location holds the canonical URL to the resource.
	Location string

	// ETag holds the version of the resource.
	ETag string

	// Body contains the object sent in the body of the response.
	Body interface{}
}

// responseText is returned as a value response from handler functions
// that return a plain-text message instead of a JSON object.
type responseText string

type resourceHandler struct {
	// Representation is an object representing the body of PUT
	// and POST requests.  A copy of this object will be passed to
	// handler functions.
	Representation interface{}

	// Context reads an HTTP request and produces a context object.
	Context func(req *http.Request) (*context, error)

	// Get, if non-nil, returns a representation of the object.
	Get func(*context) (interface{}, error)

	// Put, if non-nil, updates the representation of the object.
	// The interface parameter is guaranteed to be the same type
	// as Representation.  The return can be any useful return
	// value, including responseEntity.
	Put func(*context, interface{}) (interface{}, error)

	// Post, if non-nil, takes some arbitrary action.  The
	// interface parameter is guaranteed to be the same type as
	// Representation.  The return can be any useful return value,
	// including responseEntity.
	Post func(*context, interface{}) (interface{}, error)

	// Delete, if non-nil, deletes the object.  The return can be
	// any useful return value, including responseText.
	Delete func(*context) (interface{}, error)

	// Log receives reports of panics.
	Log logrus.FieldLogger
}

// allowed returns the list of methods this handler supports, for the
// Allow: header.
func (h *resourceHandler) allowed() string {
	var methods []string
	if h.Get != nil {
		methods = append(methods, http.MethodGet, http.MethodHead)
	}
	if h.Put != nil {
		methods = append(methods, http.MethodPut)
	}
	if h.Post != nil {
		methods = append(methods, http.MethodPost)
	}
	if h.Delete != nil {
		methods = append(methods, http.MethodDelete)
	}
	return strings.Join(methods, ", ")
}

func (h *resourceHandler) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	var (
		ctx          *context
		in, out      interface{}
		err          error
		responseType string
	)

	// Recover from panics by sending an HTTP error.
	defer func() {
		if recovered := recover(); recovered != nil {
			if h.Log != nil {
				h.Log.WithFields(logrus.Fields{
					"method": req.Method,
					"path":   req.URL.Path,
					"panic":  recovered,
				}).Errorf("Panic in handler\n%s", debug.Stack())
			}
			response := restdata.ErrorResponse{}
			response.FromPanic(recovered)
			writeJSON(resp, restdata.DefaultMediaType, http.StatusInternalServerError, response)
		}
	}()

	// Start by trying to come up with a response type, even before
	// trying to parse the input.  This determines what format an
	// error message could be sent back as.
	responseType, err = negotiateResponse(req)
	if err != nil {
		// Gotta pick something
		responseType = restdata.DefaultMediaType
		if _, hasStatus := err.(restdata.ErrorStatus); !hasStatus {
			err = restdata.ErrBadRequest{Err: err}
		}
	}

	// Get bits from URL parameters
	if err == nil {
		ctx, err = h.Context(req)
	}

	// Find the method handler; if there isn't one, that is the
	// error, before looking at any body
	var (
		get     func(*context) (interface{}, error)
		putPost func(*context, interface{}) (interface{}, error)
	)
	if err == nil {
		switch req.Method {
		case http.MethodGet, http.MethodHead:
			get = h.Get
		case http.MethodDelete:
			get = h.Delete
		case http.MethodPut:
			putPost = h.Put
		case http.MethodPost:
			putPost = h.Post
		}
		if get == nil && putPost == nil {
			err = errMethodNotAllowed{Method: req.Method}
			resp.Header().Set("Allow", h.allowed())
		}
	}

	// Read the (JSON?) body, if it's there
	if err == nil && putPost != nil {
		// Make a new object of the same type as h.Representation
		// and decode the message body into it
		ptr := reflect.New(reflect.TypeOf(h.Representation))
		contentType := req.Header.Get("Content-Type")
		err = restdata.Decode(contentType, req.Body, ptr.Interface())
		if err == nil {
			in = ptr.Elem().Interface()
		}
	}

	// Actually call the handler method
	if err == nil {
		if get != nil {
			out, err = get(ctx)
		} else {
			out, err = putPost(ctx, in)
		}
	}

	// Fix up the final result based on what we know.
	status := http.StatusOK
	if err != nil {
		status = restdata.HTTPStatus(err)
		response := restdata.ErrorResponse{}
		response.FromError(err)
		out = response
	}
	switch result := out.(type) {
	case nil:
		resp.WriteHeader(http.StatusNoContent)
		return
	case responseText:
		resp.Header().Set("Content-Type", "text/plain; charset=utf-8")
		resp.WriteHeader(status)
		if req.Method != http.MethodHead {
			_, _ = resp.Write([]byte(result))
		}
		return
	case responseEntity:
		if result.Created {
			status = http.StatusCreated
		}
		if result.Location != "" {
			resp.Header().Set("Location", result.Location)
		}
		if result.ETag != "" {
			resp.Header().Set("ETag", result.ETag)
		}
		out = result.Body
	}

	if req.Method == http.MethodHead {
		resp.Header().Set("Content-Type", responseType)
		resp.WriteHeader(status)
		return
	}
	writeJSON(resp, responseType, status, out)
}

// writeJSON sends a complete JSON response.  The body is encoded
// before anything is written, so that an encoding failure can still
// become a 500 error.  Failures writing to the client are ignored:
// by then the status line has been sent and there is nothing better
// to do.
func writeJSON(resp http.ResponseWriter, responseType string, status int, out interface{}) {
	var buf bytes.Buffer
	err := restdata.Encode(&buf, out)
	if err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		response := restdata.ErrorResponse{}
		response.FromError(err)
		_ = restdata.Encode(&buf, response)
	}
	resp.Header().Set("Content-Type", responseType)
	resp.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	resp.WriteHeader(status)
	_, _ = resp.Write(buf.Bytes())
}

// negotiateResponse returns a supported MIME type for the response
// body, following the path laid out in RFC 7231 section 5.3.
func negotiateResponse(req *http.Request) (string, error) {
	accept := req.Header.Get("Accept")
	if accept == "" {
		accept = "*/*"
	}
	bestType := ""
	bestQ := 0.0
	mediaRanges := strings.Split(accept, ",")
	for _, mediaRange := range mediaRanges {
		mediaRange = strings.TrimSpace(mediaRange)
		mediaType, params, err := mime.ParseMediaType(mediaRange)
		if err != nil {
			return "", err
		}

		// What is the "q" ("quality") parameter for this type?
		// If it is less than the best known so far, skip it
		q := 1.0
		if qStr, haveQ := params["q"]; haveQ {
			q, err = strconv.ParseFloat(qStr, 64)
			if err != nil {
				return "", err
			}
			if q < 0.0 || q > 1.0 {
				return "", errBadAccept
			}
		}
		if q < bestQ {
			continue
		}

		// This is acceptable if it's listed in the type
		// map; or it's one of a couple of specific wildcards.
		// Also need to handle wildcard precedence.  So:
		if mediaType == "*/*" {
			// Doesn't override anything.
			if q > bestQ {
				bestType = mediaType
				bestQ = q
			}
		} else if mediaType == "text/*" || mediaType == "application/*" {
			// Only overrides "*/*".
			if q > bestQ || bestType == "*/*" {
				bestType = mediaType
				bestQ = q
			}
		} else if _, knownType := typeMap[mediaType]; knownType {
			// Overrides any wildcard.  We want the first one
			// at a given q to win.
			if q > bestQ || bestType == "*/*" || bestType == "text/*" || bestType == "application/*" {
				bestType = mediaType
				bestQ = q
			}
		}
		// Otherwise we don't recognize this type at all, so
		// just drop it.
		//
		// The RFC endorses honoring type parameters as being
		// "more specific" but we don't really deal with that.
	}
	// If this failed to win, return an error
	if bestQ == 0.0 {
		return "", errNotAcceptable{}
	}
	switch bestType {
	case "*/*", "application/*":
		return restdata.DefaultMediaType, nil
	case "text/*":
		return "text/json", nil
	default:
		return bestType, nil
	}
}
