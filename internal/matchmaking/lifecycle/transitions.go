package lifecycle

import (
	"fmt"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/models"
)

// Policy relaxes the transition table.
type Policy struct {
	// AllowReopen permits not_interested -> interested.
	AllowReopen bool
	// Permissive accepts any known status regardless of the current one.
	Permissive bool
}

var transitions = map[models.MatchStatus][]models.MatchStatus{
	models.StatusGenerated:        {models.StatusViewed, models.StatusExpired},
	models.StatusViewed:           {models.StatusInterested, models.StatusNotInterested, models.StatusExpired},
	models.StatusInterested:       {models.StatusContacted, models.StatusExpired},
	models.StatusNotInterested:    {models.StatusExpired},
	models.StatusContacted:        {models.StatusMeetingScheduled, models.StatusExpired},
	models.StatusMeetingScheduled: {models.StatusInNegotiation, models.StatusExpired},
	models.StatusInNegotiation:    {models.StatusDealCreated, models.StatusExpired},
	models.StatusDealCreated:      nil,
	models.StatusExpired:          nil,
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s models.MatchStatus) bool {
	next, known := transitions[s]
	return known && len(next) == 0
}

// AllowedTransitions lists the statuses reachable from s under p.
func AllowedTransitions(s models.MatchStatus, p Policy) []models.MatchStatus {
	if p.Permissive {
		out := make([]models.MatchStatus, 0, len(models.AllStatuses))
		for _, st := range models.AllStatuses {
			if st != s {
				out = append(out, st)
			}
		}
		return out
	}
	out := append([]models.MatchStatus(nil), transitions[s]...)
	if p.AllowReopen && s == models.StatusNotInterested {
		out = append(out, models.StatusInterested)
	}
	return out
}

// CheckTransition returns a VALIDATION_FAILED error when from -> to is not
// allowed under p. Unknown statuses are always rejected.
func CheckTransition(from, to models.MatchStatus, p Policy) error {
	if !to.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("unknown match status %q", to))
	}
	if !from.Valid() && !p.Permissive {
		return apperrors.NewValidationError(fmt.Sprintf("match has unknown status %q", from))
	}
	for _, next := range AllowedTransitions(from, p) {
		if next == to {
			return nil
		}
	}
	return apperrors.NewValidationError(fmt.Sprintf("illegal status transition %s -> %s", from, to)).
		WithMetadata("from", string(from)).
		WithMetadata("to", string(to))
}
