// Package types defines the shared data structures for CraftMind.
// This package contains only type definitions, no logic beyond the
// sealed Action variant markers.
package types

// Vec3 is a position in the game world.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ItemStack is one inventory slot.
type ItemStack struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Entity is a creature or player near the bot.
type Entity struct {
	Name     string  `json:"name"`
	Kind     string  `json:"type"` // "mob", "player", ...
	Distance float64 `json:"distance"`
	Hostile  bool    `json:"hostile,omitempty"`
}

// Block is a named block near the bot.
type Block struct {
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// ChatMessage is one in-game chat line. Timestamp is in milliseconds,
// as reported by the bot runtime.
type ChatMessage struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// WorldState is the bot's view of the world at one decision step.
// CraftMind only reads it; the bot runtime owns and produces it.
type WorldState struct {
	Position       Vec3           `json:"position"`
	Health         float64        `json:"health"` // 0..20
	Food           float64        `json:"food"`   // 0..20
	Inventory      []ItemStack    `json:"inventory"`
	NearbyEntities []Entity       `json:"nearbyEntities"`
	NearbyBlocks   []Block        `json:"nearbyBlocks"`
	RecentChats    []ChatMessage  `json:"recentChats"`
	LastAction     map[string]any `json:"lastAction,omitempty"`
	ActionResult   string         `json:"actionResult,omitempty"`
}

// Candidate is an unvalidated parse result: a kind string plus loosely
// typed fields. It lives only between the format resolver and the
// validator; a Candidate never reaches the bot runtime.
type Candidate struct {
	Kind   string
	Fields map[string]any
}

// Outcome classifies how an executed action went.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeUnknown Outcome = "unknown"
)
