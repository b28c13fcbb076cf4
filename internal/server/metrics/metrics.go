// Package metrics exposes Prometheus counters for authentication outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shopkeeper"

const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeLocked    = "locked"
	OutcomeDuplicate = "duplicate"
	OutcomeInvalid   = "invalid"
	OutcomeValid     = "valid"
)

// Auth holds the counters on a private registry. A nil *Auth records nothing.
type Auth struct {
	registry *prometheus.Registry

	login       *prometheus.CounterVec
	register    *prometheus.CounterVec
	tokenVerify *prometheus.CounterVec
}

func New() *Auth {
	m := &Auth{
		registry: prometheus.NewRegistry(),
		login: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		register: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "register_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		tokenVerify: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "token_verify_total",
			Help:      "Bearer token verifications by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.login, m.register, m.tokenVerify,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Auth) Login(outcome string) {
	if m == nil {
		return
	}
	m.login.WithLabelValues(outcome).Inc()
}

func (m *Auth) Register(outcome string) {
	if m == nil {
		return
	}
	m.register.WithLabelValues(outcome).Inc()
}

func (m *Auth) TokenVerify(outcome string) {
	if m == nil {
		return
	}
	m.tokenVerify.WithLabelValues(outcome).Inc()
}

func (m *Auth) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Auth) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
