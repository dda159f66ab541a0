// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"github.com/diffeo/go-coffee/coffee"
	"github.com/diffeo/go-coffee/restserver"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/urfave/negroni"
)

// newHandler builds the complete HTTP stack: panic recovery, then
// request logging and metrics, then the coffee routes and /metrics.
// Requests are only logged if logRequests is set.
func newHandler(c coffee.Coffees, m *metrics, log *logrus.Logger, logRequests bool) *negroni.Negroni {
	recovery := negroni.NewRecovery()
	recovery.Logger = log
	recovery.PrintStack = false

	requestLogger := restserver.NewRequestLogger(log)
	if !logRequests {
		requestLogger.Log = nil
	}
	requestLogger.Observe = m.Observe

	r := mux.NewRouter()
	restserver.PopulateRouter(r, c, log)
	r.Path("/metrics").Handler(m.Handler())

	n := negroni.New(recovery, requestLogger)
	n.UseHandler(r)
	return n
}
