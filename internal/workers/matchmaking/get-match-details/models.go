package getmatchdetails

import "brokerage-matchmaking/internal/matchmaking/lifecycle"

type Input struct {
	MatchID string `json:"matchId"`
}

type Output struct {
	Details *lifecycle.MatchDetails `json:"details"`
}
