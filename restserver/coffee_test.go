// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/diffeo/go-coffee/coffee"
	"github.com/diffeo/go-coffee/memory"
	"github.com/diffeo/go-coffee/restserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HTTPAssertions drives a router over a memory store and checks its
// responses.
type HTTPAssertions struct {
	*assert.Assertions
	t       *testing.T
	Service *coffee.Service
	Handler http.Handler
}

func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	service := coffee.NewService(memory.New())
	return &HTTPAssertions{
		Assertions: assert.New(t),
		t:          t,
		Service:    service,
		Handler:    restserver.NewRouter(service),
	}
}

// Do sends a request with an optional JSON body and extra headers,
// given as name/value pairs.
func (a *HTTPAssertions) Do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		if headers[i+1] == "" {
			req.Header.Del(headers[i])
		} else {
			req.Header.Set(headers[i], headers[i+1])
		}
	}
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)
	return rec
}

// Create makes a coffee directly through the service.
func (a *HTTPAssertions) Create(name string) coffee.Coffee {
	c, err := a.Service.Create(context.Background(), name)
	require.NoError(a.t, err)
	return c
}

// ErrorResponse asserts a JSON error response.
func (a *HTTPAssertions) ErrorResponse(rec *httptest.ResponseRecorder, status int, message string) {
	a.Equal(status, rec.Code)
	a.Equal("application/json", rec.Header().Get("Content-Type"))
	a.JSONEq(`{"error":`+strconv.Quote(message)+`}`, rec.Body.String())
}

func TestRootDocument(t *testing.T) {
	a := NewHTTPAssertions(t)
	rec := a.Do(http.MethodGet, "/", "")
	a.Equal(http.StatusOK, rec.Code)
	a.JSONEq(`{"coffees_url":"/coffees","coffee_url":"/coffee{/id}"}`, rec.Body.String())
}

func TestListEmpty(t *testing.T) {
	a := NewHTTPAssertions(t)
	rec := a.Do(http.MethodGet, "/coffees", "")
	a.Equal(http.StatusOK, rec.Code)
	a.Equal("application/json", rec.Header().Get("Content-Type"))
	a.JSONEq(`[]`, rec.Body.String())
}

func TestList(t *testing.T) {
	a := NewHTTPAssertions(t)
	a.Create("Coffee 1")
	a.Create("Coffee 2")
	rec := a.Do(http.MethodGet, "/coffees", "")
	a.Equal(http.StatusOK, rec.Code)
	a.JSONEq(`[{"id":1,"name":"Coffee 1","version":1},{"id":2,"name":"Coffee 2","version":1}]`,
		rec.Body.String())
}

func TestGet(t *testing.T) {
	a := NewHTTPAssertions(t)
	a.Create("Coffee 1")
	rec := a.Do(http.MethodGet, "/coffee/1", "")
	a.Equal(http.StatusOK, rec.Code)
	a.Equal("1", rec.Header().Get("ETag"))
	a.Equal("/coffee/1", rec.Header().Get("Location"))
	a.JSONEq(`{"id":1,"name":"Coffee 1","version":1}`, rec.Body.String())
}

func TestGetNotFound(t *testing.T) {
	a := NewHTTPAssertions(t)
	rec := a.Do(http.MethodGet, "/coffee/9", "")
	a.ErrorResponse(rec, http.StatusNotFound, "No coffee found with ID 9")
}

func TestNonNumericID(t *testing.T) {
	a := NewHTTPAssertions(t)
	for _, path := range []string{"/coffee/abc", "/coffee/-1", "/coffee/1.5", "/nowhere"} {
		rec := a.Do(http.MethodGet, path, "")
		a.Equal(http.StatusNotFound, rec.Code, path)
	}
}

func TestOversizedID(t *testing.T) {
	a := NewHTTPAssertions(t)
	path := "/coffee/99999999999999999999999"
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec := a.Do(method, path, "")
		a.ErrorResponse(rec, http.StatusNotFound, "Not found")
		a.NotContains(rec.Body.String(), "strconv", method)
	}
}

func TestHead(t *testing.T) {
	a := NewHTTPAssertions(t)
	a.Create("Coffee 1")
	rec := a.Do(http.MethodHead, "/coffee/1", "")
	a.Equal(http.StatusOK, rec.Code)
	a.Equal("1", rec.Header().Get("ETag"))
	a.Empty(rec.Body.String())
}

func TestPost(t *testing.T) {
	a := NewHTTPAssertions(t)
	rec := a.Do(http.MethodPost, "/coffee", `{"name":"Coffee 1"}`)
	a.Equal(http.StatusCreated, rec.Code)
	a.Equal("1", rec.Header().Get("ETag"))
	a.Equal("/coffee/1", rec.Header().Get("Location"))
	a.JSONEq(`{"id":1,"name":"Coffee 1","version":1}`, rec.Body.String())
}

func TestPostMissingName(t *testing.T) {
	a := NewHTTPAssertions(t)
	for _, body := range []string{`{}`, `{"name":""}`, `{"other":"x"}`} {
		rec := a.Do(http.MethodPost, "/coffee", body)
		a.ErrorResponse(rec, http.StatusBadRequest, "Missing name")
	}
	coffees, err := a.Service.List(context.Background())
	a.NoError(err)
	a.Empty(coffees)
}

func TestPostMalformed(t *testing.T) {
	a := NewHTTPAssertions(t)
	for _, body := range []string{`{"name":`, `{"name":"a"} trailing`, `[]`, `["a"]`} {
		rec := a.Do(http.MethodPost, "/coffee", body)
		a.Equal(http.StatusBadRequest, rec.Code, body)
	}
	coffees, err := a.Service.List(context.Background())
	a.NoError(err)
	a.Empty(coffees)
}

func TestPostWrongContentType(t *testing.T) {
	a := NewHTTPAssertions(t)
	rec := a.Do(http.MethodPost, "/coffee", `{"name":"Coffee 1"}`, "Content-Type", "text/plain")
	a.ErrorResponse(rec, http.StatusUnsupportedMediaType, `Unsupported media type "text/plain"`)

	rec = a.Do(http.MethodPost, "/coffee", `{"name":"Coffee 1"}`, "Content-Type", "")
	a.Equal(http.StatusUnsupportedMediaType, rec.Code)
}

func TestPut(t *testing.T) {
	a := NewHTTPAssertions(t)
	a.Create("Coffee 1")
	rec := a.Do(http.MethodPut, "/coffee/1", `{"name":"Coffee 2"}`, "If-Match", "1")
	a.Equal(http.StatusOK, rec.Code)
	a.Equal("2", rec.Header().Get("ETag"))
	a.Equal("/coffee/1", rec.Header().Get("Location"))
	a.JSONEq(`{"id":1,"name":"Coffee 2","version":2}`, rec.Body.String())
}

func TestPutQuotedIfMatch(t *testing.T) {
	a := NewHTTPAssertions(t)
	a.Create("Coffee 1")
	rec := a.Do(http.MethodPut, "/coffee/1", `{"name":"Coffee 2"}`, "If-Match", `"1"`)
	a.Equal(http.StatusOK, rec.Code)
	a.Equal("2", rec.Header().Get("ETag"))
}

func TestPutConflict(t *testing.T) {
	a := NewHTTPAssertions(t)
	a.Create("Coffee 1")
	rec := a.Do(http.MethodPut, "/coffee/1", `{"name":"Coffee 2"}`, "If-Match", "2")
	a.ErrorResponse(rec, http.StatusConflict,
		"Version conflict for coffee with ID 1: version = 1, If-Match = 2")

	c, err := a.Service.Get(context.Background(), 1)
	a.NoError(err)
	a.Equal(coffee.Coffee{ID: 1, Name: "Coffee 1", Version: 1}, c)
}

func TestPutNotFound(t *testing.T) {
	a := NewHTTPAssertions(t)
	rec := a.Do(http.MethodPut, "/coffee/9", `{"name":"Coffee 2"}`, "If-Match", "1")
	a.ErrorResponse(rec, http.StatusNotFound, "No coffee found with ID 9")
}

func TestPutMissingName(t *testing.T) {
	a := NewHTTPAssertions(t)
	a.Create("Coffee 1")
	rec := a.Do(http.MethodPut, "/coffee/1", `{"name":""}`, "If-Match", "1")
	a.ErrorResponse(rec, http.StatusBadRequest, "Missing name")
}

func TestPutMissingIfMatch(t *testing.T) {
	a := NewHTTPAssertions(t)
	a.Create("Coffee 1")
	rec := a.Do(http.MethodPut, "/coffee/1", `{"name":"Coffee 2"}`)
	a.ErrorResponse(rec, http.StatusBadRequest, "Missing If-Match header")
}

func TestPutBadIfMatch(t *testing.T) {
	a := NewHTTPAssertions(t)
	a.Create("Coffee 1")
	for _, ifMatch := range []string{"one", "*", `W/"1"`, "1.0"} {
		rec := a.Do(http.MethodPut, "/coffee/1", `{"name":"Coffee 2"}`, "If-Match", ifMatch)
		a.Equal(http.StatusBadRequest, rec.Code, ifMatch)
	}
	c, err := a.Service.Get(context.Background(), 1)
	a.NoError(err)
	a.Equal(1, c.Version)
}

func TestDelete(t *testing.T) {
	a := NewHTTPAssertions(t)
	a.Create("Coffee 1")
	rec := a.Do(http.MethodDelete, "/coffee/1", "")
	a.Equal(http.StatusOK, rec.Code)
	a.Equal("text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	a.Equal("Deleted coffee 1", rec.Body.String())

	rec = a.Do(http.MethodGet, "/coffee/1", "")
	a.Equal(http.StatusNotFound, rec.Code)

	rec = a.Do(http.MethodDelete, "/coffee/1", "")
	a.ErrorResponse(rec, http.StatusNotFound, "No coffee found with ID 1")
}

func TestMethodNotAllowed(t *testing.T) {
	a := NewHTTPAssertions(t)
	tests := []struct {
		method, path, allow string
	}{
		{http.MethodPost, "/coffees", "GET, HEAD"},
		{http.MethodGet, "/coffee", "POST"},
		{http.MethodPost, "/coffee/1", "GET, HEAD, PUT, DELETE"},
		{http.MethodPatch, "/coffee/1", "GET, HEAD, PUT, DELETE"},
	}
	for _, test := range tests {
		rec := a.Do(test.method, test.path, "")
		a.ErrorResponse(rec, http.StatusMethodNotAllowed, "Method "+test.method+" not allowed")
		a.Equal(test.allow, rec.Header().Get("Allow"))
	}
}

func TestNotAcceptable(t *testing.T) {
	a := NewHTTPAssertions(t)
	rec := a.Do(http.MethodGet, "/coffees", "", "Accept", "text/html")
	a.ErrorResponse(rec, http.StatusNotAcceptable, "No acceptable representation for response")
}

func TestVendorMediaType(t *testing.T) {
	a := NewHTTPAssertions(t)
	rec := a.Do(http.MethodPost, "/coffee", `{"name":"Coffee 1"}`,
		"Content-Type", "application/vnd.diffeo.coffee.v1+json",
		"Accept", "application/vnd.diffeo.coffee.v1+json")
	a.Equal(http.StatusCreated, rec.Code)
	a.Equal("application/vnd.diffeo.coffee.v1+json", rec.Header().Get("Content-Type"))
}

// failing is a coffee.Coffees whose every operation is a store
// failure.
type failing struct{}

var errFailing = &coffee.ErrStore{Op: "list coffees", Err: errors.New("disk on fire")}

func (failing) List(ctx context.Context) ([]coffee.Coffee, error) {
	return nil, errFailing
}

func (failing) Get(ctx context.Context, id int) (coffee.Coffee, error) {
	return coffee.Coffee{}, errFailing
}

func (failing) Create(ctx context.Context, name string) (coffee.Coffee, error) {
	return coffee.Coffee{}, errFailing
}

func (failing) Update(ctx context.Context, id int, name string, expectedVersion int) (coffee.Coffee, error) {
	return coffee.Coffee{}, errFailing
}

func (failing) Delete(ctx context.Context, id int) error {
	return errFailing
}

func TestStoreFailure(t *testing.T) {
	a := NewHTTPAssertions(t)
	a.Handler = restserver.NewRouter(failing{})
	rec := a.Do(http.MethodGet, "/coffees", "")
	a.ErrorResponse(rec, http.StatusInternalServerError, "list coffees: disk on fire")
	rec = a.Do(http.MethodDelete, "/coffee/1", "")
	a.Equal(http.StatusInternalServerError, rec.Code)
}
