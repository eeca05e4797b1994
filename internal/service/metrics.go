package service

import "github.com/prometheus/client_golang/prometheus"

var (
	GamesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arena_games_created_total",
		Help: "Total games deployed by the factory",
	})
	GamesJoined = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arena_games_joined_total",
		Help: "Total successful joins",
	})
	GamesResolved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arena_games_resolved_total",
		Help: "Total games resolved with a winner",
	})
	RandomnessRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arena_randomness_requests_total",
		Help: "Total randomness requests submitted",
	})
	RandomnessFulfillments = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arena_randomness_fulfillments_total",
		Help: "Total fulfillments accepted from the oracle",
	})
)

func init() {
	prometheus.MustRegister(
		GamesCreated,
		GamesJoined,
		GamesResolved,
		RandomnessRequests,
		RandomnessFulfillments,
	)
}
