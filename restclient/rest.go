// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restclient

// This file provides generic REST client code.

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"

	"github.com/diffeo/go-coffee/restdata"
	"github.com/jtacoma/uritemplates"
)

// resource is any object that has a URL and a representation.
type resource struct {
	URL *url.URL

	// Client performs the HTTP requests.  If nil,
	// http.DefaultClient is used.
	Client *http.Client
}

// Template expands a URI template with vars, and resolves the result
// relative to the resource's URL.
func (r *resource) Template(template string, vars map[string]interface{}) (*url.URL, error) {
	tmpl, err := uritemplates.Parse(template)
	if err != nil {
		return nil, err
	}
	expanded, err := tmpl.Expand(vars)
	if err != nil {
		return nil, err
	}
	return r.URL.Parse(expanded)
}

// request describes one HTTP call against a templated URL.
type request struct {
	Method   string
	Template string
	Vars     map[string]interface{}
	Header   http.Header

	// In, if non-nil, is sent as the JSON request body.
	In interface{}

	// Out, if non-nil, must be a pointer; the JSON response body
	// is decoded into it.
	Out interface{}
}

// Call performs req relative to the resource's URL.  An empty
// template means the resource's own URL.
func (r *resource) Call(ctx context.Context, req request) error {
	target := r.URL
	if req.Template != "" {
		var err error
		target, err = r.Template(req.Template, req.Vars)
		if err != nil {
			return err
		}
	}
	return r.Do(ctx, req.Method, target, req.Header, req.In, req.Out)
}

// Do performs some HTTP action.  If in is non-nil, the request data is
// serialized and sent as the body of, for instance, a POST request.
// If out is non-nil, the response data (if any) is deserialized into
// this object, which must be of pointer type.  Any headers are added
// to the request.
func (r *resource) Do(ctx context.Context, method string, target *url.URL, header http.Header, in, out interface{}) (err error) {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err = restdata.Encode(&buf, in); err != nil {
			return err
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if in != nil {
		req.Header.Set("Content-Type", restdata.V1JSONMediaType)
	}
	req.Header.Set("Accept", restdata.V1JSONMediaType)

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := resp.Body.Close(); err == nil {
			err = closeErr
		}
	}()

	if err = checkHTTPStatus(resp); err != nil {
		return err
	}
	if out == nil {
		// Drain so the connection can be reused
		_, err = io.Copy(ioutil.Discard, resp.Body)
		return err
	}
	return restdata.Decode(resp.Header.Get("Content-Type"), resp.Body, out)
}

// ErrorHTTP is a catch-all error for non-successes returned from the
// REST endpoint.
type ErrorHTTP struct {
	// Response holds a pointer to the failing HTTP response.
	Response *http.Response

	// Body holds the contents of the message body, presumed to
	// be text.
	Body string

	// Message is the server's error message, if the body was a
	// well-formed error response.
	Message string
}

func (e ErrorHTTP) Error() string {
	if e.Message != "" {
		return e.Response.Status + ": " + e.Message
	}
	return e.Response.Status
}

// checkHTTPStatus examines an HTTP response and returns an error if
// it is not successful.  Error responses from a coffee server are
// turned back into coffee errors where possible.
func checkHTTPStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// The body is needed both for decoding and as the fallback
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	errHTTP := ErrorHTTP{Response: resp, Body: string(body)}
	var errResp restdata.ErrorResponse
	contentType := resp.Header.Get("Content-Type")
	if restdata.Decode(contentType, bytes.NewReader(body), &errResp) == nil {
		if err = errResp.ToError(resp.StatusCode); err != nil {
			return err
		}
		errHTTP.Message = errResp.Error
	}
	return errHTTP
}
