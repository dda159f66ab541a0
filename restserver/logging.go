// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
	"github.com/urfave/negroni"
)

// RequestIDHeader is the HTTP header carrying the request ID.  If a
// request has one it is kept; otherwise RequestLogger makes one up.
// Either way it is sent back on the response.
const RequestIDHeader = "X-Request-ID"

// RequestLogger is a negroni middleware that logs one entry per HTTP
// request.
type RequestLogger struct {
	// Log receives the entries.  Requests are logged at Info
	// level, or Warn for 5xx responses.  If nil, nothing is logged,
	// but requests still get IDs and are observed.
	Log logrus.FieldLogger

	// Clock times the requests.
	Clock clock.Clock

	// Observe, if non-nil, is called after every request with its
	// method, response status, and duration.
	Observe func(method string, status int, duration time.Duration)
}

// NewRequestLogger creates a request logger writing to log, using the
// system clock.
func NewRequestLogger(log logrus.FieldLogger) *RequestLogger {
	return &RequestLogger{Log: log, Clock: clock.New()}
}

func (l *RequestLogger) ServeHTTP(rw http.ResponseWriter, req *http.Request, next http.HandlerFunc) {
	start := l.Clock.Now()

	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewV4().String()
		req.Header.Set(RequestIDHeader, requestID)
	}
	rw.Header().Set(RequestIDHeader, requestID)

	res, isNegroni := rw.(negroni.ResponseWriter)
	if !isNegroni {
		res = negroni.NewResponseWriter(rw)
	}
	next(res, req)

	duration := l.Clock.Now().Sub(start)
	status := res.Status()
	if status == 0 {
		// Nothing wrote a header, so net/http will send 200
		status = http.StatusOK
	}

	if l.Log != nil {
		entry := l.Log.WithFields(logrus.Fields{
			"method":     req.Method,
			"path":       req.URL.Path,
			"status":     status,
			"size":       res.Size(),
			"duration":   duration,
			"request_id": requestID,
			"remote":     req.RemoteAddr,
		})
		message := strconv.Itoa(status) + " " + http.StatusText(status)
		if status >= 500 {
			entry.Warn(message)
		} else {
			entry.Info(message)
		}
	}

	if l.Observe != nil {
		l.Observe(req.Method, status, duration)
	}
}
