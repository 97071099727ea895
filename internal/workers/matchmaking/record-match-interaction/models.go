package recordmatchinteraction

import "time"

type Input struct {
	MatchID         string                 `json:"matchId"`
	UserID          string                 `json:"userId"`
	InteractionType string                 `json:"interactionType"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	InteractionID string    `json:"interactionId"`
	RecordedAt    time.Time `json:"recordedAt"`
}
