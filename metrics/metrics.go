// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

// Package metrics exports the statistics of decision diagram engines to
// Prometheus.
package metrics

import (
	"github.com/nddlab/ndd"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ndd"

// EngineLabel is the name of the label identifying the engine of a metric.
const EngineLabel = "engine"

// StatsSource is implemented by *ndd.Engine.
type StatsSource interface {
	Stats() ndd.Stats
}

type metric struct {
	desc  *prometheus.Desc
	vtype prometheus.ValueType
	value func(s ndd.Stats) int
}

// Collector is a prometheus.Collector reading a snapshot of the statistics of
// an engine at each scrape. Calls to Stats are serialized with the operations
// of the engine, so a scrape waits for the current operation to finish.
type Collector struct {
	src     StatsSource
	metrics []metric
}

// NewCollector returns a collector for the engine src. Every metric carries
// the label "engine" with the given value, so that several engines can be
// registered together.
func NewCollector(engine string, src StatsSource) *Collector {
	labels := prometheus.Labels{EngineLabel: engine}
	gauge := func(name, help string, value func(ndd.Stats) int) metric {
		return metric{
			desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, labels),
			vtype: prometheus.GaugeValue,
			value: value,
		}
	}
	counter := func(name, help string, value func(ndd.Stats) int) metric {
		m := gauge(name, help, value)
		m.vtype = prometheus.CounterValue
		return m
	}
	return &Collector{
		src: src,
		metrics: []metric{
			gauge("fields", "Number of declared fields",
				func(s ndd.Stats) int { return s.Fields }),
			gauge("bits", "Number of declared bits over all fields",
				func(s ndd.Stats) int { return s.Bits }),
			gauge("nodes", "Number of live nodes",
				func(s ndd.Stats) int { return s.Nodes }),
			gauge("capacity", "Capacity of the node table before reclamation",
				func(s ndd.Stats) int { return s.Capacity }),
			counter("nodes_produced_total", "Number of nodes created",
				func(s ndd.Stats) int { return s.Produced }),
			counter("reclamations_total", "Number of reclamations of unused nodes",
				func(s ndd.Stats) int { return s.Reclaims }),
			counter("nodes_reclaimed_total", "Number of nodes freed by reclamations",
				func(s ndd.Stats) int { return s.Reclaimed }),
			counter("unique_hits_total", "Lookups in the node table returning an existing node",
				func(s ndd.Stats) int { return s.UniqueHit }),
			counter("unique_misses_total", "Lookups in the node table creating a node",
				func(s ndd.Stats) int { return s.UniqueMiss }),
			counter("cache_hits_total", "Hits in the operation caches",
				func(s ndd.Stats) int { return s.CacheHit }),
			counter("cache_misses_total", "Misses in the operation caches",
				func(s ndd.Stats) int { return s.CacheMiss }),
			gauge("flat_nodes_allocated", "Size of the node table of the flat engine",
				func(s ndd.Stats) int { return s.Flat.Allocated }),
			gauge("flat_nodes_free", "Free nodes in the flat engine",
				func(s ndd.Stats) int { return s.Flat.Free }),
			counter("flat_gc_total", "Number of garbage collections in the flat engine",
				func(s ndd.Stats) int { return s.Flat.GCRuns }),
			counter("flat_nodes_reclaimed_total", "Number of nodes freed by the flat engine",
				func(s ndd.Stats) int { return s.Flat.Reclaimed }),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.vtype, float64(m.value(s)))
	}
}
