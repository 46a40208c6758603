// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Action labels for denial metrics.
const (
	ActionTrade       = "trade"
	ActionMailSend    = "mail_send"
	ActionMailReceive = "mail_receive"
	ActionAuction     = "auction"
	ActionGroupInvite = "group_invite"
	ActionGroupAccept = "group_accept"
	ActionTeleport    = "teleport"
	ActionGuildBank   = "guild_bank"
	ActionEquip       = "equip"
	ActionRepop       = "repop"
	ActionResurrect   = "resurrect"
)

// Denials counts blocked actions.
// Use RegisterMetrics to register this with a Prometheus registry.
var Denials = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gauntlet_challenge_denials_total",
		Help: "Total number of actions denied by challenge restrictions",
	},
	[]string{"action"},
)

// DeathsClassified counts processed deaths of permadeath players by cause
// and whether the death was permanent.
var DeathsClassified = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gauntlet_challenge_deaths_total",
		Help: "Total number of classified deaths of permadeath players",
	},
	[]string{"cause", "permanent"},
)

// SessionKicks counts deferred kick outcomes.
var SessionKicks = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gauntlet_challenge_session_kicks_total",
		Help: "Total number of deferred permadeath kicks by outcome",
	},
	[]string{"outcome"},
)

// Enforcements counts corrective actions taken outside of a gated action.
var Enforcements = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gauntlet_challenge_enforcements_total",
		Help: "Total number of corrective enforcement actions",
	},
	[]string{"kind"},
)

// PersistenceFailures counts swallowed write failures.
var PersistenceFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gauntlet_challenge_persistence_failures_total",
		Help: "Total number of failed challenge persistence writes",
	},
	[]string{"operation"},
)

// OnlinePlayers tracks the number of cached player entries summed over every
// Service in the process. Services adjust it on entry transitions only.
var OnlinePlayers = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "gauntlet_challenge_online_players",
		Help: "Number of players with a cached challenge state",
	},
)

// RegisterMetrics registers challenge metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Denials)
	reg.MustRegister(DeathsClassified)
	reg.MustRegister(SessionKicks)
	reg.MustRegister(Enforcements)
	reg.MustRegister(PersistenceFailures)
	reg.MustRegister(OnlinePlayers)
}
