// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/diffeo/go-coffee/coffee"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// metrics holds the daemon's Prometheus collectors.
type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	count    prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "coffee",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests served, by method and status",
			},
			[]string{"method", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "coffee",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Time taken to serve HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		count: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "coffee",
			Name:      "count",
			Help:      "Number of stored coffees",
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.count,
		prometheus.NewGoCollector(),
	)
	return m
}

// Observe records a single served request.  It matches the
// restserver.RequestLogger Observe hook.
func (m *metrics) Observe(method string, status int, duration time.Duration) {
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method).Observe(duration.Seconds())
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// refresh updates the coffee count gauge.
func (m *metrics) refresh(ctx context.Context, coffees coffee.Coffees) error {
	all, err := coffees.List(ctx)
	if err != nil {
		return err
	}
	m.count.Set(float64(len(all)))
	return nil
}

// watch refreshes the coffee count gauge every interval until ctx is
// done.
func (m *metrics) watch(ctx context.Context, coffees coffee.Coffees, clk clock.Clock, interval time.Duration, log logrus.FieldLogger) {
	ticker := clk.Ticker(interval)
	defer ticker.Stop()
	for {
		if err := m.refresh(ctx, coffees); err != nil && ctx.Err() == nil {
			log.WithField("err", err).Warn("Could not count coffees")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
