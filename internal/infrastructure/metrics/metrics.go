// Package metrics expone contadores Prometheus del ciclo de vida de facturas.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/invoice-lifecycle/internal/application/billing"
	"github.com/jhoicas/invoice-lifecycle/internal/domain"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/entity"
)

const metricPrefix = "invoice_"

var _ billing.ActionRecorder = (*Metrics)(nil)

// Metrics implementa billing.ActionRecorder.
type Metrics struct {
	ActionsTotal     *prometheus.CounterVec
	RejectionsTotal  *prometheus.CounterVec
	TransitionsTotal *prometheus.CounterVec
}

// New construye y registra las métricas en reg (prometheus.DefaultRegisterer en producción).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "actions_total",
				Help: "Total invoice actions applied by action",
			},
			[]string{"action"},
		),
		RejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "action_rejections_total",
				Help: "Total invoice actions rejected by action and reason",
			},
			[]string{"action", "reason"},
		),
		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "status_transitions_total",
				Help: "Total status changes by source and target status",
			},
			[]string{"from", "to"},
		),
	}
	reg.MustRegister(m.ActionsTotal, m.RejectionsTotal, m.TransitionsTotal)
	return m
}

// ActionApplied cuenta la acción y, si cambió el estado, la transición.
func (m *Metrics) ActionApplied(action string, from, to entity.Status) {
	m.ActionsTotal.WithLabelValues(action).Inc()
	if from != to {
		m.TransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	}
}

// ActionRejected cuenta el rechazo clasificado por tipo de error.
func (m *Metrics) ActionRejected(action string, err error) {
	m.RejectionsTotal.WithLabelValues(action, Reason(err)).Inc()
}

// Reason etiqueta de bajo cardinal para un error de dominio.
func Reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvariant):
		return "invariant"
	case errors.Is(err, domain.ErrPrecondition):
		return "precondition"
	case errors.Is(err, domain.ErrIllegalTransition):
		return "illegal_transition"
	case errors.Is(err, domain.ErrBlockedTransition):
		return "blocked"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrDuplicate):
		return "duplicate"
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrUnauthorized):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}
