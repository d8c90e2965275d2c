// Package metrics exposes Prometheus counters for the session flows.
package metrics

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/tubeauth/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation names used as the "operation" label.
const (
	OpRegister       = "register"
	OpLogin          = "login"
	OpRefresh        = "refresh"
	OpLogout         = "logout"
	OpAuthenticate   = "authenticate"
	OpChangePassword = "change_password"
	OpUpdateAccount  = "update_account"
)

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on the default one. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry
	authOps  *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		authOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tubeauth",
			Name:      "auth_operations_total",
			Help:      "Session and account operations by outcome.",
		}, []string{"operation", "result"}),
	}
	reg.MustRegister(
		m.authOps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe counts one operation; err decides the result label.
func (m *Metrics) Observe(op string, err error) {
	if m == nil {
		return
	}
	m.authOps.WithLabelValues(op, Result(err)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Result maps an error to its class label.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrorValidation):
		return "validation"
	case errors.Is(err, common.ErrorUnauthorized):
		return "unauthorized"
	case errors.Is(err, common.ErrorNotFound):
		return "not_found"
	case errors.Is(err, common.ErrorConflict):
		return "conflict"
	default:
		return "internal"
	}
}
