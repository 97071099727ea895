// internal/models/feedback.go
package models

import "time"

type FeedbackType string

const (
	FeedbackQuality   FeedbackType = "quality"
	FeedbackRelevance FeedbackType = "relevance"
	FeedbackAccuracy  FeedbackType = "accuracy"
	FeedbackOverall   FeedbackType = "overall"
)

func (t FeedbackType) Valid() bool {
	switch t {
	case FeedbackQuality, FeedbackRelevance, FeedbackAccuracy, FeedbackOverall:
		return true
	}
	return false
}

// Feedback is one user's rating of a match. Never mutated after creation.
type Feedback struct {
	ID           string       `json:"id"`
	MatchID      string       `json:"matchId"`
	UserID       string       `json:"userId"`
	Rating       int          `json:"rating"`
	FeedbackType FeedbackType `json:"feedbackType"`
	Comments     string       `json:"comments,omitempty"`
	Helpful      *bool        `json:"helpful,omitempty"`
	Reasons      []string     `json:"reasons,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// LearningRecord pairs the generation-time score with the feedback it received.
type LearningRecord struct {
	ID                 string         `json:"id"`
	MatchID            string         `json:"matchId"`
	UserID             string         `json:"userId"`
	CompatibilityScore int            `json:"compatibilityScore"`
	ScoreBreakdown     ScoreBreakdown `json:"scoreBreakdown"`
	Rating             int            `json:"rating"`
	FeedbackType       FeedbackType   `json:"feedbackType"`
	Helpful            *bool          `json:"helpful,omitempty"`
	Reasons            []string       `json:"reasons,omitempty"`
	AlgorithmVersion   string         `json:"algorithmVersion"`
	CreatedAt          time.Time      `json:"createdAt"`
}
