package application

import "expvar"

// Counters published under /debug/vars.
var (
	metricSignups         = expvar.NewInt("economy_signups_total")
	metricTaps            = expvar.NewInt("economy_taps_total")
	metricTapsRejected    = expvar.NewInt("economy_taps_rejected_total")
	metricEnergyRegen     = expvar.NewInt("economy_energy_regenerated_total")
	metricPollsCreated    = expvar.NewInt("polls_created_total")
	metricVotes           = expvar.NewInt("polls_votes_total")
	metricVotesRejected   = expvar.NewInt("polls_votes_rejected_total")
	metricEventsPublished = expvar.NewInt("poll_events_published_total")
	metricEventsFailed    = expvar.NewInt("poll_events_failed_total")
)
