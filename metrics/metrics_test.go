// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T) map[string]*dto.MetricFamily {
	families, err := Gatherer().Gather()
	require.NoError(t, err)
	m := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		m[mf.GetName()] = mf
	}
	return m
}

func TestNoopByDefault(t *testing.T) {
	backend = newNoop()
	for _, m := range []any{
		Counter("c"),
		CounterVec("cv", nil),
		Gauge("g"),
		GaugeVec("gv", nil),
		Histogram("h", nil),
	} {
		assert.IsType(t, noopMeter{}, m)
	}
}

func TestPrometheus(t *testing.T) {
	lazyCounter := LazyLoadCounter("test_lazy_total")
	InitializePrometheusMetrics()
	defer func() { backend = newNoop() }()

	lazyCounter().Add(3)
	Counter("test_counter_total").Add(1)
	Counter("test_counter_total").Add(1)

	vec := CounterVec("test_results_total", []string{"result"})
	vec.AddWithLabel(2, map[string]string{"result": "ok"})
	vec.AddWithLabel(5, map[string]string{"result": "err"})

	Gauge("test_gauge").Set(7)
	Gauge("test_gauge").Add(-2)
	GaugeVec("test_gauge_vec", []string{"event"}).SetWithLabel(4, map[string]string{"event": "hit"})

	h := Histogram("test_hist", BucketBlockMs)
	h.Observe(3)
	h.Observe(40)

	m := gather(t)
	assert.Equal(t, 3.0, m["docstate_test_lazy_total"].Metric[0].GetCounter().GetValue())
	assert.Equal(t, 2.0, m["docstate_test_counter_total"].Metric[0].GetCounter().GetValue())

	sum := 0.0
	for _, metric := range m["docstate_test_results_total"].Metric {
		sum += metric.GetCounter().GetValue()
	}
	assert.Equal(t, 7.0, sum)

	assert.Equal(t, 5.0, m["docstate_test_gauge"].Metric[0].GetGauge().GetValue())
	assert.Equal(t, 4.0, m["docstate_test_gauge_vec"].Metric[0].GetGauge().GetValue())
	assert.Equal(t, uint64(2), m["docstate_test_hist"].Metric[0].GetHistogram().GetSampleCount())
	assert.Equal(t, 43.0, m["docstate_test_hist"].Metric[0].GetHistogram().GetSampleSum())
}
