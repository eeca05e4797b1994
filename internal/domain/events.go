package domain

// Event types broadcast to off-process observers.
const (
	EventGameDeployed               = "game_deployed"
	EventJoinedGame                 = "joined_game"
	EventGameOutcome                = "game_outcome"
	EventVRFConfigurationUpdated    = "vrf_configuration_updated"
	EventDefaultMaxStalenessUpdated = "default_max_staleness_updated"
	EventImplementationUpdated      = "implementation_updated"
)

// Event is the envelope pushed to websocket subscribers.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type GameDeployedEvent struct {
	Game                Address  `json:"game"`
	Player1             Address  `json:"player1"`
	Side                CoinSide `json:"side"`
	Manager             Address  `json:"manager"`
	MaxStalenessSeconds int64    `json:"max_staleness_seconds"`
	Salt                Salt     `json:"salt"`
}

type JoinedGameEvent struct {
	Game    Address `json:"game"`
	Player1 Address `json:"player1"`
	Player2 Address `json:"player2"`
}

type GameOutcomeEvent struct {
	Game    Address  `json:"game"`
	Winner  Address  `json:"winner"`
	Outcome CoinSide `json:"outcome"`
}

type VRFConfigurationUpdatedEvent struct {
	Coordinator Address `json:"coordinator"`
	Token       Address `json:"token"`
	KeyLane     Hash    `json:"key_lane"`
}

type DefaultMaxStalenessUpdatedEvent struct {
	OldSeconds int64 `json:"old_seconds"`
	NewSeconds int64 `json:"new_seconds"`
}

type ImplementationUpdatedEvent struct {
	Kind string  `json:"kind"` // game | manager
	Old  Address `json:"old"`
	New  Address `json:"new"`
}
