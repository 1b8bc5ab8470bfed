// Package metrics instruments the controllers with Prometheus collectors.
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "backoffice"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Recorder holds the collectors of one admin session.
type Recorder struct {
	mutations *prometheus.CounterVec
	reorders  *prometheus.CounterVec
	dialogs   *prometheus.CounterVec
	records   *prometheus.GaugeVec
}

// NewRecorder creates the collectors and registers them on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Create, update and delete operations by entity, kind and result.",
		}, []string{"entity", "kind", "result"}),
		reorders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reorders_total",
			Help:      "Move and reset-order operations by entity and result.",
		}, []string{"entity", "result"}),
		dialogs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialog_transitions_total",
			Help:      "Confirmation dialog transitions by entity and target stage.",
		}, []string{"entity", "to"}),
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Records currently held per entity store.",
		}, []string{"entity"}),
	}
	if reg != nil {
		reg.MustRegister(r.mutations, r.reorders, r.dialogs, r.records)
	}
	return r
}

// Mutation counts one mutation attempt.
func (r *Recorder) Mutation(entity, kind string, err error) {
	if r == nil {
		return
	}
	r.mutations.WithLabelValues(entity, kind, result(err)).Inc()
}

// Reorder counts one reorder attempt.
func (r *Recorder) Reorder(entity string, err error) {
	if r == nil {
		return
	}
	r.reorders.WithLabelValues(entity, result(err)).Inc()
}

// DialogTransition counts a dialog entering stage to.
func (r *Recorder) DialogTransition(entity, to string) {
	if r == nil {
		return
	}
	r.dialogs.WithLabelValues(entity, to).Inc()
}

// Records sets the current size of an entity store.
func (r *Recorder) Records(entity string, n int) {
	if r == nil {
		return
	}
	r.records.WithLabelValues(entity).Set(float64(n))
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
