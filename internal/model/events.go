package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Block lifecycle events
	EventBlockRemoved     EventType = "block_removed"
	EventBlockMoved       EventType = "block_moved"
	EventBlockSpawned     EventType = "block_spawned"
	EventBlockTierChanged EventType = "block_tier_changed"

	// Board events
	EventMatchRejected      EventType = "match_rejected"
	EventBoardHidden        EventType = "board_hidden"
	EventBoardRevealed      EventType = "board_revealed"
	EventInteractionChanged EventType = "interaction_changed"
	EventBoardClosed        EventType = "board_closed"
)

// Event is the base structure for all events
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	BoardID   BoardID   `json:"board_id"`
	Payload   any       `json:"payload,omitempty"`
}

// BlockPayload contains data for removed and spawned events
type BlockPayload struct {
	BlockID BlockID  `json:"block_id"`
	Color   string   `json:"color"`
	Tier    Tier     `json:"tier"`
	At      Position `json:"at"`
}

// BlockMovedPayload contains data for block moved events
type BlockMovedPayload struct {
	BlockID BlockID  `json:"block_id"`
	From    Position `json:"from"`
	To      Position `json:"to"`
}

// TierChangedPayload contains data for tier changed events
type TierChangedPayload struct {
	BlockID BlockID `json:"block_id"`
	Tier    Tier    `json:"tier"`
}

// MatchRejectedPayload contains data for rejected taps
type MatchRejectedPayload struct {
	At Position `json:"at"`
}

// InteractionChangedPayload contains data for input gate changes
type InteractionChangedPayload struct {
	Enabled bool `json:"enabled"`
}
