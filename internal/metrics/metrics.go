// Package metrics provides Prometheus metrics for the drop-off bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StateTransitions tracks conversation state changes.
	StateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sobaken_state_transitions_total",
			Help: "Total number of conversation state transitions",
		},
		[]string{"from_state", "to_state"},
	)

	// RoutingMisses tracks inputs that matched nothing for the current state.
	RoutingMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sobaken_routing_misses_total",
			Help: "Total number of inputs ignored by the dispatch router",
		},
		[]string{"kind"},
	)

	// ActiveChains tracks running notification chains.
	ActiveChains = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sobaken_active_chains",
			Help: "Number of currently running notification chains",
		},
	)

	// ChainSteps tracks completed chain steps.
	ChainSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sobaken_chain_steps_total",
			Help: "Total number of chain steps executed",
		},
		[]string{"step"},
	)

	// ChainsAborted tracks chains stopped by a failed step or shutdown.
	ChainsAborted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sobaken_chains_aborted_total",
			Help: "Total number of chains that did not run to completion",
		},
		[]string{"reason"},
	)

	// TransportErrors tracks failed outbound deliveries.
	TransportErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sobaken_transport_errors_total",
			Help: "Total number of failed outbound sends",
		},
		[]string{"op"},
	)
)

// RecordTransition records a conversation state change.
func RecordTransition(fromState, toState string) {
	StateTransitions.WithLabelValues(fromState, toState).Inc()
}

func RecordRoutingMiss(kind string) {
	RoutingMisses.WithLabelValues(kind).Inc()
}

func RecordChainStarted() {
	ActiveChains.Inc()
}

func RecordChainFinished() {
	ActiveChains.Dec()
}

func RecordChainStep(step string) {
	ChainSteps.WithLabelValues(step).Inc()
}

func RecordChainAborted(reason string) {
	ChainsAborted.WithLabelValues(reason).Inc()
}

func RecordTransportError(op string) {
	TransportErrors.WithLabelValues(op).Inc()
}
