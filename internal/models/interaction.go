// internal/models/interaction.go
package models

import "time"

type InteractionType string

const (
	InteractionViewed           InteractionType = "viewed"
	InteractionClicked          InteractionType = "clicked"
	InteractionContacted        InteractionType = "contacted"
	InteractionSaved            InteractionType = "saved"
	InteractionShared           InteractionType = "shared"
	InteractionStatusChange     InteractionType = "status_change"
	InteractionFeedbackProvided InteractionType = "feedback_provided"
	InteractionMeetingScheduled InteractionType = "meeting_scheduled"
)

func (t InteractionType) Valid() bool {
	switch t {
	case InteractionViewed, InteractionClicked, InteractionContacted, InteractionSaved,
		InteractionShared, InteractionStatusChange, InteractionFeedbackProvided, InteractionMeetingScheduled:
		return true
	}
	return false
}

// Interaction is an append-only audit entry of a user action on a match.
type Interaction struct {
	ID              string                 `json:"id"`
	MatchID         string                 `json:"matchId"`
	UserID          string                 `json:"userId"`
	InteractionType InteractionType        `json:"interactionType"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
}
