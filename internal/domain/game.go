package domain

import (
	"errors"
	"time"
)

// CoinSide - chosen side of the toss
type CoinSide string

const (
	SideHeads CoinSide = "heads"
	SideTails CoinSide = "tails"
)

// Opposite returns the complementary side.
func (s CoinSide) Opposite() CoinSide {
	if s == SideHeads {
		return SideTails
	}
	return SideHeads
}

// Valid reports whether the side is one of the two legal values.
func (s CoinSide) Valid() bool {
	return s == SideHeads || s == SideTails
}

// ParseCoinSide parses a client-supplied side string.
func ParseCoinSide(s string) (CoinSide, error) {
	side := CoinSide(s)
	if !side.Valid() {
		return "", errors.New("side must be heads or tails")
	}
	return side, nil
}

// GameStatus - lifecycle phase of a game instance
type GameStatus string

const (
	StatusUninitialized      GameStatus = "uninitialized"
	StatusAwaitingPlayer2    GameStatus = "awaiting_player2"
	StatusAwaitingRandomness GameStatus = "awaiting_randomness"
	StatusResolved           GameStatus = "resolved"
)

// PlayerDetails pairs a participant with the side they hold.
type PlayerDetails struct {
	Player Address  `json:"player"`
	Side   CoinSide `json:"side"`
}

// GameRecord is a read-only snapshot of a game instance.
type GameRecord struct {
	Address      Address        `json:"address"`
	Status       GameStatus     `json:"status"`
	Player1      PlayerDetails  `json:"player1"`
	Player2      *PlayerDetails `json:"player2,omitempty"`
	Manager      Address        `json:"manager"`
	RequestID    uint64         `json:"request_id,omitempty"`
	Winner       *Address       `json:"winner,omitempty"`
	Completed    bool           `json:"completed"`
	Outcome      *CoinSide      `json:"outcome,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	JoinedAt     *time.Time     `json:"joined_at,omitempty"`
	MaxStaleness time.Duration  `json:"max_staleness_ns"`
}

// RandomnessRequestRecord tracks one oracle request. Words stay empty until
// the fulfillment arrives; a record is never deleted and fulfills at most once.
type RandomnessRequestRecord struct {
	RequestID uint64   `json:"request_id"`
	Words     []uint64 `json:"words,omitempty"`
	Fulfilled bool     `json:"fulfilled"`
	Exists    bool     `json:"exists"`
}
