// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "unbounded"

// Metric names.
const (
	MetricRequests         = "requests_total"
	MetricTaskPolls        = "task_polls_total"
	MetricShardFetches     = "shard_fetches_total"
	MetricUploadFlushes    = "upload_flushes_total"
	MetricUploadFlushBytes = "upload_flush_bytes"
)

type metrics struct {
	requests         *prometheus.CounterVec
	taskPolls        prometheus.Counter
	shardFetches     *prometheus.CounterVec
	uploadFlushes    prometheus.Counter
	uploadFlushBytes prometheus.Histogram
}

// newMetrics creates the client collectors and registers them with reg.
// A nil reg leaves them unregistered.
func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      MetricRequests,
			Help:      "API requests by method and status code; code is \"none\" when no response was received.",
		}, []string{"method", "code"}),
		taskPolls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      MetricTaskPolls,
			Help:      "Task status requests.",
		}),
		shardFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      MetricShardFetches,
			Help:      "Result file fetches by outcome.",
		}, []string{"outcome"}),
		uploadFlushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      MetricUploadFlushes,
			Help:      "Insert requests issued by uploaders.",
		}),
		uploadFlushBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      MetricUploadFlushBytes,
			Help:      "Estimated size of each uploader flush.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.requests, m.taskPolls, m.shardFetches, m.uploadFlushes, m.uploadFlushBytes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) shardFetched(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.shardFetches.WithLabelValues("error").Inc()
		return
	}
	m.shardFetches.WithLabelValues("ok").Inc()
}
