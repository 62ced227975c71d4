// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics is a thin facade over the metrics backend.
// It is a no-op until InitializePrometheusMetrics is called.
package metrics

import "sync"

// the active backend, swapped once by InitializePrometheusMetrics
var backend = newNoop()

type provider interface {
	counter(name string) CountMeter
	counterVec(name string, labels []string) CountVecMeter
	gauge(name string) GaugeMeter
	gaugeVec(name string, labels []string) GaugeVecMeter
	histogram(name string, buckets []int64) HistogramMeter
}

// BucketBlockMs buckets of block processing durations in milliseconds.
var BucketBlockMs = []int64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// CountMeter is a monotonically increasing counter.
type CountMeter interface {
	Add(int64)
}

// CountVecMeter is a counter partitioned by labels.
type CountVecMeter interface {
	AddWithLabel(int64, map[string]string)
}

// GaugeMeter is a value that can go up and down.
type GaugeMeter interface {
	Add(int64)
	Set(int64)
}

// GaugeVecMeter is a gauge partitioned by labels.
type GaugeVecMeter interface {
	AddWithLabel(int64, map[string]string)
	SetWithLabel(int64, map[string]string)
}

// HistogramMeter aggregates observations into buckets.
type HistogramMeter interface {
	Observe(int64)
}

func Counter(name string) CountMeter { return backend.counter(name) }

func CounterVec(name string, labels []string) CountVecMeter {
	return backend.counterVec(name, labels)
}

func Gauge(name string) GaugeMeter { return backend.gauge(name) }

func GaugeVec(name string, labels []string) GaugeVecMeter {
	return backend.gaugeVec(name, labels)
}

func Histogram(name string, buckets []int64) HistogramMeter {
	return backend.histogram(name, buckets)
}

// LazyLoad defers creating a meter to its first use, so meters can be declared
// as package vars before the backend is chosen.
func LazyLoad[T any](f func() T) func() T {
	var (
		once   sync.Once
		result T
	)
	return func() T {
		once.Do(func() { result = f() })
		return result
	}
}

func LazyLoadCounter(name string) func() CountMeter {
	return LazyLoad(func() CountMeter { return Counter(name) })
}

func LazyLoadCounterVec(name string, labels []string) func() CountVecMeter {
	return LazyLoad(func() CountVecMeter { return CounterVec(name, labels) })
}

func LazyLoadGauge(name string) func() GaugeMeter {
	return LazyLoad(func() GaugeMeter { return Gauge(name) })
}

func LazyLoadGaugeVec(name string, labels []string) func() GaugeVecMeter {
	return LazyLoad(func() GaugeVecMeter { return GaugeVec(name, labels) })
}

func LazyLoadHistogram(name string, buckets []int64) func() HistogramMeter {
	return LazyLoad(func() HistogramMeter { return Histogram(name, buckets) })
}
