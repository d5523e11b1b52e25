// Package metrics exposes ledger activity as prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "curator"

const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics groups the ledger collectors. A nil *Metrics discards everything.
type Metrics struct {
	operations     *prometheus.CounterVec
	minted         *prometheus.CounterVec
	burned         *prometheus.CounterVec
	votePower      *prometheus.CounterVec
	linksFinalized *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Ledger operations by name and result.",
		}, []string{"op", "result"}),
		minted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_minted_total",
			Help:      "Tokens minted per token class.",
		}, []string{"class"}),
		burned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_burned_total",
			Help:      "Tokens burned per token class.",
		}, []string{"class"}),
		votePower: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vote_power_total",
			Help:      "Quadratic voting power revealed per choice.",
		}, []string{"choice"}),
		linksFinalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_finalized_total",
			Help:      "Topic links settled per outcome.",
		}, []string{"status"}),
	}

	for _, c := range []prometheus.Collector{m.operations, m.minted, m.burned, m.votePower, m.linksFinalized} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Operation(op string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.operations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) Minted(class string, amount uint64) {
	if m == nil {
		return
	}
	m.minted.WithLabelValues(class).Add(float64(amount))
}

func (m *Metrics) Burned(class string, amount uint64) {
	if m == nil {
		return
	}
	m.burned.WithLabelValues(class).Add(float64(amount))
}

func (m *Metrics) VotePower(choice string, power uint64) {
	if m == nil {
		return
	}
	m.votePower.WithLabelValues(choice).Add(float64(power))
}

func (m *Metrics) LinkFinalized(status string) {
	if m == nil {
		return
	}
	m.linksFinalized.WithLabelValues(status).Inc()
}
