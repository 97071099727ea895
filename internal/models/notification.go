// internal/models/notification.go
package models

const (
	NotificationNewMatches  = "new_matches"
	NotificationMatchUpdate = "match_update"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Notification is what the core hands to the notification sink.
type Notification struct {
	Type     string                 `json:"type"`
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
	Priority string                 `json:"priority,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// NotificationTemplate renders {{placeholder}} fields from Notification.Data.
type NotificationTemplate struct {
	Type     string `json:"type"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	SMSBody  string `json:"smsBody,omitempty"`
	HTMLBody string `json:"htmlBody,omitempty"`
}
