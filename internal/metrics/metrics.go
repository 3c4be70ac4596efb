// Package metrics holds the prometheus collectors shared by the agent and the hub.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PeerConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meeting_peer_connections",
		Help: "Number of open peer connections",
	})

	PeerConnectionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meeting_peer_connections_created_total",
		Help: "Total number of peer connections created",
	})

	// PeerConnectionStates counts connection state transitions.
	PeerConnectionStates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meeting_peer_connection_states_total",
		Help: "Peer connection state transitions",
	}, []string{"state"})

	SignalsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meeting_signals_received_total",
		Help: "Inbound peer signals by type",
	}, []string{"type"})

	SignalsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meeting_signals_dropped_total",
		Help: "Inbound peer signals that were discarded or failed",
	}, []string{"reason"}) // "not_addressed" | "invalid" | "failed"

	ActiveSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meeting_hub_active_sockets",
		Help: "Number of connected hub sockets",
	})

	SocketsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meeting_hub_sockets_total",
		Help: "Total number of hub socket connections",
	})

	WhispersRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meeting_hub_whispers_relayed_total",
		Help: "Client events fanned out by the hub",
	})

	WhispersLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meeting_hub_whispers_limited_total",
		Help: "Client events rejected by the rate limiter",
	})

	StructuralEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meeting_hub_structural_events_total",
		Help: "Server events broadcast by the hub",
	}, []string{"event"})

	Participants = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meeting_hub_participants",
		Help: "Participants present across all meetings",
	})
)
