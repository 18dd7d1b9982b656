// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_http_requests_total",
		Help: "HTTP requests by method, route pattern and status code",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	RootNameLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_root_name_cache_lookups_total",
		Help: "Root category name cache lookups by result",
	}, []string{"result"})

	CategoryTreeRebuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "store_category_tree_rebuilds_total",
		Help: "Full nested-set rebuilds of the category forest",
	})

	CartsProvisioned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "store_carts_provisioned_total",
		Help: "Carts created by the account creation hook",
	})
)

// Cache lookup results
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)
