package notify

import (
	"fmt"
	"strings"

	"brokerage-matchmaking/internal/models"
)

// DefaultTemplates covers the notification types the matchmaking core emits.
func DefaultTemplates() map[string]models.NotificationTemplate {
	return map[string]models.NotificationTemplate{
		models.NotificationNewMatches: {
			Type:    models.NotificationNewMatches,
			Subject: "{{count}} new business matches for you",
			Body: "Hi {{fullName}}, we found {{count}} new matches based on your preferences. " +
				"Your best match scored {{topScore}}%.",
			SMSBody: "{{count}} new business matches are waiting for you. Top score: {{topScore}}%.",
		},
		models.NotificationMatchUpdate: {
			Type:    models.NotificationMatchUpdate,
			Subject: "{{title}}",
			Body:    "Hi {{fullName}}, {{message}}",
			SMSBody: "{{message}}",
		},
	}
}

// renderTemplate substitutes {{key}} placeholders from data and drops any
// placeholder left without a value.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		switch t := v.(type) {
		case string:
			value = t
		case int:
			value = fmt.Sprintf("%d", t)
		case nil:
		default:
			value = fmt.Sprintf("%v", t)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}
