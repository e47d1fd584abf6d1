package models

import "github.com/google/uuid"

// ActionRecord is one committed transition on a table, in the shape the
// historian persists. Payload is free-form per ActionType.
type ActionRecord struct {
	TableID     uuid.UUID              `json:"table_id"`
	ActionIndex int                    `json:"action_index"`
	Seat        int                    `json:"seat"`
	ActorID     string                 `json:"actor_id"`
	ActionType  string                 `json:"action_type"`
	Payload     map[string]interface{} `json:"payload"`
	Timestamp   int64                  `json:"timestamp"`
}

// Action types written to the action log.
const (
	ActionGameStart   = "game_start"
	ActionPlayCard    = "play_card"
	ActionDrawCard    = "draw_card"
	ActionChooseColor = "choose_color"
	ActionCallUno     = "call_uno"
	ActionGameEnd     = "game_end"
	ActionAbandoned   = "table_abandoned"
)
