package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	EventPlayerJoined   EventType = "player_joined"
	EventPlayerEvicted  EventType = "player_evicted"
	EventPlayerFinished EventType = "player_finished"
	EventPhaseChanged   EventType = "phase_changed"
)

// Event describes something that happened in the lobby
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	PlayerID  PlayerID  `json:"player_id,omitempty"`
	Payload   any       `json:"payload,omitempty"`
}

// PlayerJoinedPayload contains data for player joined events
type PlayerJoinedPayload struct {
	DisplayName string `json:"display_name"`
	Provisioned bool   `json:"provisioned"` // created by an update for an unknown id
}

// PlayerEvictedPayload contains data for player evicted events
type PlayerEvictedPayload struct {
	DisplayName string    `json:"display_name"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// PlayerFinishedPayload contains data for player finished events
type PlayerFinishedPayload struct {
	DisplayName string    `json:"display_name"`
	FinishTime  time.Time `json:"finish_time"`
}

// PhaseChangedPayload contains data for phase changed events
type PhaseChangedPayload struct {
	From          Phase     `json:"from"`
	To            Phase     `json:"to"`
	PhaseDeadline time.Time `json:"phase_deadline"`
}
