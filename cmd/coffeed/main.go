// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Command coffeed serves the coffee REST API.
//
// Coffees are kept in one of the storage backends named by --backend,
// optionally behind an in-process cache.  Settings can also come from
// a YAML file named by --config, with keys http, backend, log_level,
// log_requests, and cache_size; anything given on the command line
// wins.  If $DATABASE_URL is set and no backend is configured
// otherwise, coffees are stored in that PostgreSQL database.
//
// Prometheus metrics are served at /metrics.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/diffeo/go-coffee/backend"
	"github.com/diffeo/go-coffee/cache"
	"github.com/diffeo/go-coffee/coffee"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// countInterval is how often the coffee_count gauge is refreshed.
const countInterval = 30 * time.Second

func newApp() *cli.App {
	defaults := defaultConfig()
	backend := backend.Backend{Implementation: defaults.Backend}
	app := cli.NewApp()
	app.Name = "coffeed"
	app.Usage = "serve the coffee REST API"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "http",
			Value: defaults.HTTP,
			Usage: "[ip]:port for HTTP REST interface",
		},
		cli.GenericFlag{
			Name:   "backend",
			Value:  &backend,
			EnvVar: "COFFEE_BACKEND",
			Usage:  "impl[:address] of the storage backend",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "configuration YAML file",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: defaults.LogLevel,
			Usage: "minimum level of log messages",
		},
		cli.BoolFlag{
			Name:  "log-requests",
			Usage: "log all requests",
		},
		cli.IntFlag{
			Name:  "cache-size",
			Value: defaults.CacheSize,
			Usage: "cache this many coffees in memory (0 to disable)",
		},
	}
	app.Action = serve
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logrus.WithFields(logrus.Fields{
			"err": err,
		}).Fatal("coffeed failed")
	}
}

func serve(c *cli.Context) error {
	cfg, err := configure(c)
	if err != nil {
		return err
	}
	log := logrus.StandardLogger()
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	service := coffee.NewServiceWithLogger(store, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := newMetrics()
	go m.watch(ctx, service, clock.New(), countInterval, log)

	server := &http.Server{
		Addr:    cfg.HTTP,
		Handler: newHandler(service, m, log, cfg.LogRequests),
	}
	errs := make(chan error, 1)
	go func() {
		errs <- server.ListenAndServe()
	}()
	log.WithFields(logrus.Fields{
		"http":    cfg.HTTP,
		"backend": cfg.Backend,
		"cache":   cfg.CacheSize,
	}).Info("Serving coffees")

	select {
	case err = <-errs:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = server.Shutdown(shutdownCtx)
	if serveErr := <-errs; !errors.Is(serveErr, http.ErrServerClosed) && err == nil {
		err = serveErr
	}
	return err
}

// newStore opens the configured backend, wrapping it in a cache if
// one was requested.
func newStore(cfg config) (coffee.Store, error) {
	b := cfg.backend()
	store, err := b.Store()
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize > 0 {
		store = cache.New(store, cfg.CacheSize)
	}
	return store, nil
}
