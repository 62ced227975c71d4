// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vechain/docstate/log"
)

const namespace = "docstate"

var logger = log.WithContext("pkg", "metrics")

// InitializePrometheusMetrics switches the backend to prometheus.
// Meters are registered to prometheus.DefaultRegisterer. Calling it again is a no-op.
func InitializePrometheusMetrics() {
	if _, ok := backend.(*promProvider); !ok {
		backend = &promProvider{}
	}
}

// Gatherer returns the gatherer the prometheus backend registers to.
func Gatherer() prometheus.Gatherer {
	return prometheus.DefaultGatherer
}

type promProvider struct {
	meters sync.Map // name -> meter
}

// getOrCreate returns the meter registered under name, building it on first use.
func getOrCreate[T any](p *promProvider, name string, build func() (prometheus.Collector, T)) T {
	if m, ok := p.meters.Load(name); ok {
		if meter, ok := m.(T); ok {
			return meter
		}
		logger.Warn("metric registered with another type", "name", name)
	}
	collector, meter := build()
	if err := prometheus.Register(collector); err != nil {
		logger.Warn("unable to register metric", "name", name, "err", err)
	}
	actual, _ := p.meters.LoadOrStore(name, meter)
	if m, ok := actual.(T); ok {
		return m
	}
	return meter
}

func (p *promProvider) counter(name string) CountMeter {
	return getOrCreate(p, name, func() (prometheus.Collector, CountMeter) {
		c := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name})
		return c, &promCounter{c}
	})
}

func (p *promProvider) counterVec(name string, labels []string) CountVecMeter {
	return getOrCreate(p, name, func() (prometheus.Collector, CountVecMeter) {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name}, labels)
		return c, &promCounterVec{c}
	})
}

func (p *promProvider) gauge(name string) GaugeMeter {
	return getOrCreate(p, name, func() (prometheus.Collector, GaugeMeter) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name})
		return g, &promGauge{g}
	})
}

func (p *promProvider) gaugeVec(name string, labels []string) GaugeVecMeter {
	return getOrCreate(p, name, func() (prometheus.Collector, GaugeVecMeter) {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name}, labels)
		return g, &promGaugeVec{g}
	})
}

func (p *promProvider) histogram(name string, buckets []int64) HistogramMeter {
	return getOrCreate(p, name, func() (prometheus.Collector, HistogramMeter) {
		floats := make([]float64, 0, len(buckets))
		for _, b := range buckets {
			floats = append(floats, float64(b))
		}
		h := prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: name, Buckets: floats})
		return h, &promHistogram{h}
	})
}

type promCounter struct{ c prometheus.Counter }

func (m *promCounter) Add(i int64) { m.c.Add(float64(i)) }

type promCounterVec struct{ c *prometheus.CounterVec }

func (m *promCounterVec) AddWithLabel(i int64, labels map[string]string) {
	m.c.With(labels).Add(float64(i))
}

type promGauge struct{ g prometheus.Gauge }

func (m *promGauge) Add(i int64) { m.g.Add(float64(i)) }
func (m *promGauge) Set(i int64) { m.g.Set(float64(i)) }

type promGaugeVec struct{ g *prometheus.GaugeVec }

func (m *promGaugeVec) AddWithLabel(i int64, labels map[string]string) {
	m.g.With(labels).Add(float64(i))
}

func (m *promGaugeVec) SetWithLabel(i int64, labels map[string]string) {
	m.g.With(labels).Set(float64(i))
}

type promHistogram struct{ h prometheus.Histogram }

func (m *promHistogram) Observe(i int64) { m.h.Observe(float64(i)) }
