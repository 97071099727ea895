package updatematchstatus

import "time"

type Input struct {
	MatchID string `json:"matchId"`
	Status  string `json:"status"`
	UserID  string `json:"userId"`
	Notes   string `json:"notes,omitempty"`
}

type Output struct {
	MatchID        string    `json:"matchId"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previousStatus"`
	Changed        bool      `json:"changed"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
