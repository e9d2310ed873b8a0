// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package merge

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters a merge updates. Every counter is labeled with
// the module name.
type Metrics struct {
	// RecordsRead counts the records read from inputs while writing the
	// output.
	RecordsRead *prometheus.CounterVec
	// SharedRecords counts the aggregate records written.
	SharedRecords *prometheus.CounterVec
	// RecordsSkipped counts the input records represented by an aggregate.
	RecordsSkipped *prometheus.CounterVec
	// RecordsWritten counts all records written, aggregates included.
	RecordsWritten *prometheus.CounterVec
	// InputsMerged counts the inputs whose contents were written.
	InputsMerged prometheus.Counter
}

// NewMetrics returns a new set of metrics.
func NewMetrics() *Metrics {
	counterVec := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iolog",
			Subsystem: "merge",
			Name:      name,
			Help:      help,
		}, []string{"module"})
	}
	return &Metrics{
		RecordsRead:    counterVec("records_read_total", "Records read from inputs."),
		SharedRecords:  counterVec("shared_records_total", "Aggregate records written."),
		RecordsSkipped: counterVec("records_skipped_total", "Input records represented by an aggregate."),
		RecordsWritten: counterVec("records_written_total", "Records written to the output."),
		InputsMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "iolog",
			Subsystem: "merge",
			Name:      "inputs_total",
			Help:      "Inputs merged.",
		}),
	}
}

// Collectors returns the metrics as prometheus collectors, for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RecordsRead, m.SharedRecords, m.RecordsSkipped, m.RecordsWritten, m.InputsMerged,
	}
}

func (m *Metrics) record(s *ModuleSummary) {
	if m == nil {
		return
	}
	m.RecordsRead.WithLabelValues(s.Name).Add(float64(s.RecordsRead))
	m.SharedRecords.WithLabelValues(s.Name).Add(float64(s.SharedRecords))
	m.RecordsSkipped.WithLabelValues(s.Name).Add(float64(s.RecordsSkipped))
	m.RecordsWritten.WithLabelValues(s.Name).Add(float64(s.RecordsWritten))
}
