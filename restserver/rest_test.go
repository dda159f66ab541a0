// Regression tests for rest.go.
//
// Main tests are really by running the end-to-end path, using the
// coffeetest tests driven from restclient, and the HTTP contract
// tests in coffee_test.go.  This only contains special-case tests.
//
// Copyright 2016-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	stdcontext "context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/diffeo/go-coffee/coffee"
	"github.com/diffeo/go-coffee/memory"
	"github.com/stretchr/testify/assert"
)

type failResponseWriter struct {
	Headers    http.Header
	StatusCode int
}

func (rw *failResponseWriter) Header() http.Header {
	if rw.Headers == nil {
		rw.Headers = make(http.Header)
	}
	return rw.Headers
}

func (rw *failResponseWriter) Write([]byte) (int, error) {
	return 0, errors.New("foo")
}

func (rw *failResponseWriter) WriteHeader(code int) {
	rw.StatusCode = code
}

// TestDoubleFault checks that, if there is an error writing a JSON
// response, it doesn't actually panic the process.
func TestDoubleFault(t *testing.T) {
	service := coffee.NewService(memory.New())
	c, err := service.Create(stdcontext.Background(), "Coffee 1")
	if !assert.NoError(t, err) {
		return
	}

	router := NewRouter(service)
	req := &http.Request{
		Method: http.MethodGet,
		URL: &url.URL{
			Path: "/coffee/1",
		},
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
		Close:      true,
		Host:       "localhost",
	}
	resp := &failResponseWriter{}
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header().Get("ETag"))
	assert.Equal(t, 1, c.ID)
}

// panicky is a coffee.Coffees where everything panics.
type panicky struct{}

func (panicky) List(ctx stdcontext.Context) ([]coffee.Coffee, error) {
	panic("no coffee for you")
}

func (panicky) Get(ctx stdcontext.Context, id int) (coffee.Coffee, error) {
	panic(errors.New("no coffee for you"))
}

func (panicky) Create(ctx stdcontext.Context, name string) (coffee.Coffee, error) {
	panic("no coffee for you")
}

func (panicky) Update(ctx stdcontext.Context, id int, name string, expectedVersion int) (coffee.Coffee, error) {
	panic("no coffee for you")
}

func (panicky) Delete(ctx stdcontext.Context, id int) error {
	panic("no coffee for you")
}

// TestPanicRecovered checks that a panicking handler produces a JSON
// 500 error.
func TestPanicRecovered(t *testing.T) {
	router := NewRouter(panicky{})
	for _, path := range []string{"/coffees", "/coffee/1"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), path)
		assert.JSONEq(t, `{"error":"no coffee for you"}`, rec.Body.String(), path)
	}
}

func TestNegotiateResponse(t *testing.T) {
	tests := []struct {
		accept string
		want   string
		status int
	}{
		{"", "application/json", 0},
		{"*/*", "application/json", 0},
		{"application/*", "application/json", 0},
		{"text/*", "text/json", 0},
		{"application/json", "application/json", 0},
		{"application/vnd.diffeo.coffee.v1+json", "application/vnd.diffeo.coffee.v1+json", 0},
		{"text/html, */*;q=0.1", "application/json", 0},
		{"text/html;q=0.9, application/vnd.diffeo.coffee+json", "application/vnd.diffeo.coffee+json", 0},
		{"*/*;q=0.5, text/json", "text/json", 0},
		{"text/html", "", http.StatusNotAcceptable},
		{"application/json;q=0", "", http.StatusNotAcceptable},
	}
	for _, test := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if test.accept != "" {
			req.Header.Set("Accept", test.accept)
		}
		got, err := negotiateResponse(req)
		if test.status == 0 {
			if assert.NoError(t, err, test.accept) {
				assert.Equal(t, test.want, got, test.accept)
			}
		} else if assert.Error(t, err, test.accept) {
			assert.Equal(t, test.status, err.(errNotAcceptable).HTTPStatus(), test.accept)
		}
	}
}

func TestNegotiateBadAccept(t *testing.T) {
	for _, accept := range []string{"application/json;q=2", "application/json;q=x", ";;"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept", accept)
		_, err := negotiateResponse(req)
		assert.Error(t, err, accept)
	}
}
