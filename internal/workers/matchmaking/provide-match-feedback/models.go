package providematchfeedback

type Input struct {
	MatchID      string   `json:"matchId"`
	UserID       string   `json:"userId"`
	Rating       int      `json:"rating"`
	FeedbackType string   `json:"feedbackType,omitempty"`
	Comments     string   `json:"comments,omitempty"`
	Helpful      *bool    `json:"helpful,omitempty"`
	Reasons      []string `json:"reasons,omitempty"`
}

type Output struct {
	FeedbackID   string `json:"feedbackId"`
	FeedbackType string `json:"feedbackType"`
	QualityScore int    `json:"qualityScore"`
}
