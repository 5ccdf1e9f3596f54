// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chapterly/catalog-service/internal/logging"
	"github.com/chapterly/catalog-service/internal/monitoring"
)

var _ monitoring.MonitorInterface = (*Monitor)(nil)

type Monitor struct {
	service string

	responseTime           *prometheus.HistogramVec
	dependencyAvailability *prometheus.GaugeVec

	logger logging.LoggerInterface
}

func (m *Monitor) GetService() string {
	return m.service
}

func (m *Monitor) SetResponseTimeMetric(tags map[string]string, value float64) error {
	metric, err := m.responseTime.GetMetricWith(tags)
	if err != nil {
		return err
	}

	metric.Observe(value)
	return nil
}

func (m *Monitor) SetDependencyAvailability(tags map[string]string, value float64) error {
	metric, err := m.dependencyAvailability.GetMetricWith(tags)
	if err != nil {
		return err
	}

	metric.Set(value)
	return nil
}

func NewMonitor(service string, logger logging.LoggerInterface) *Monitor {
	m := new(Monitor)

	m.service = service
	m.logger = logger

	m.responseTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_time_seconds",
			Help: "Duration of HTTP requests.",
		},
		[]string{"route", "method", "status"},
	)

	m.dependencyAvailability = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dependency_available",
			Help: "Availability of upstream dependencies, 1 up 0 down.",
		},
		[]string{"component"},
	)

	for _, collector := range []prometheus.Collector{m.responseTime, m.dependencyAvailability} {
		if err := prometheus.Register(collector); err != nil {
			m.logger.Warnf("metric registration failed: %v", err)
		}
	}

	return m
}
