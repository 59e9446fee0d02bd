// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics counts what the stream replacers and the file runner do,
// on a registry private to each Collector.
package metrics

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
	"github.com/walteh/replacestream/pkg/stream"
	"gitlab.com/tozd/go/errors"
)

const namespace = "replacestream"

// 📊 Collector owns the metrics of one run
type Collector struct {
	registry *prometheus.Registry

	replacements *prometheus.CounterVec
	bytes        *prometheus.CounterVec
	files        *prometheus.CounterVec
	held         prometheus.Histogram
}

// 🏭 NewCollector creates a collector with its own registry
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		replacements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "replacements_total",
				Help:      "Total number of matches replaced",
			},
			[]string{"rule"},
		),
		bytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_total",
				Help:      "Total bytes streamed",
			},
			[]string{"direction"},
		),
		files: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_total",
				Help:      "Total files processed",
			},
			[]string{"status"},
		),
		held: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "held_bytes",
				Help:      "Bytes held back in a tail after each chunk",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
	}
}

// Registry returns the registry the metrics live on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// 👀 Observer returns a stream observer that attributes replacements to rule
func (c *Collector) Observer(rule string) stream.Observer {
	replaced := c.replacements.WithLabelValues(rule)
	return stream.ObserverFunc(func(s stream.Stats) {
		if s.Replaced > 0 {
			replaced.Add(float64(s.Replaced))
		}
		if s.In > 0 {
			c.held.Observe(float64(s.Held))
		}
	})
}

// RecordFile counts a processed file and its bytes.
func (c *Collector) RecordFile(status string, in, out int64) {
	c.files.WithLabelValues(status).Inc()
	c.bytes.WithLabelValues("in").Add(float64(in))
	c.bytes.WithLabelValues("out").Add(float64(out))
}

// 📸 Snapshot gathers every metric into a flat map keyed like
// name{label="value"}. Histograms contribute name_count and name_sum.
func (c *Collector) Snapshot() (map[string]float64, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return nil, errors.Errorf("gathering metrics: %w", err)
	}

	out := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName() + labels(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				out[key] = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				out[key] = m.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				out[mf.GetName()+"_count"+labels(m.GetLabel())] = float64(m.GetHistogram().GetSampleCount())
				out[mf.GetName()+"_sum"+labels(m.GetLabel())] = m.GetHistogram().GetSampleSum()
			}
		}
	}
	return out, nil
}

func labels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.GetName()+`="`+p.GetValue()+`"`)
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}
