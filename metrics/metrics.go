// Copyright 2025 R5 Labs
// This file is part of the R5 Core library.
//
// This software is provided "as is", without warranty of any kind,
// express or implied, including but not limited to the warranties
// of merchantability, fitness for a particular purpose and
// noninfringement. In no event shall the authors or copyright
// holders be liable for any claim, damages, or other liability,
// whether in an action of contract, tort or otherwise, arising
// from, out of or in connection with the software or the use or
// other dealings in the software.

// Package metrics exposes the query engine's process-wide counters as
// Prometheus gauges, scraped over HTTP via promhttp.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/r5-labs/flexledger/intraindex"
	"github.com/r5-labs/flexledger/query"
)

// Collector samples a *query.Counters snapshot into Prometheus gauges
// on every scrape, rather than updating gauges inline on every query
// (which would require the engine's hot path to hold a Prometheus
// reference). It implements prometheus.Collector.
type Collector struct {
	counters *query.Counters

	queryTotal    *prometheus.Desc
	keyUsageTotal *prometheus.Desc
}

// NewCollector returns a Collector reading from counters.
func NewCollector(counters *query.Counters) *Collector {
	return &Collector{
		counters: counters,
		queryTotal: prometheus.NewDesc(
			"flexledger_query_total",
			"Number of historical queries served since the last index-manager reconciliation.",
			nil, nil,
		),
		keyUsageTotal: prometheus.NewDesc(
			"flexledger_key_usage_total",
			"Number of times a predicate attribute has been used since the last snapshot.",
			[]string{"attribute"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queryTotal
	ch <- c.keyUsageTotal
}

// Collect implements prometheus.Collector. It does not mutate c's
// underlying Counters: key-usage is read, not snapshotted-and-cleared,
// so scraping has no side effect on the index manager's own view.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.queryTotal, prometheus.GaugeValue, float64(c.counters.PeekQuery()))
	for _, attr := range []intraindex.Attribute{intraindex.AttrID, intraindex.AttrAddress, intraindex.AttrValue} {
		ch <- prometheus.MustNewConstMetric(c.keyUsageTotal, prometheus.GaugeValue, float64(c.counters.PeekKeyUsage(attr)), string(attr))
	}
}

// Handler returns an http.Handler exposing counters in the Prometheus
// text exposition format, registered on a private registry so it
// never collides with the default global one.
func Handler(counters *query.Counters) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(counters))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
