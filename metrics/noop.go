// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

type noopProvider struct{}

func newNoop() provider { return noopProvider{} }

func (noopProvider) counter(string) CountMeter                 { return noopMeter{} }
func (noopProvider) counterVec(string, []string) CountVecMeter { return noopMeter{} }
func (noopProvider) gauge(string) GaugeMeter                   { return noopMeter{} }
func (noopProvider) gaugeVec(string, []string) GaugeVecMeter   { return noopMeter{} }
func (noopProvider) histogram(string, []int64) HistogramMeter  { return noopMeter{} }

type noopMeter struct{}

func (noopMeter) Add(int64)                             {}
func (noopMeter) Set(int64)                             {}
func (noopMeter) Observe(int64)                         {}
func (noopMeter) AddWithLabel(int64, map[string]string) {}
func (noopMeter) SetWithLabel(int64, map[string]string) {}

