package getmatchstatistics

import "brokerage-matchmaking/internal/matchmaking/lifecycle"

type Input struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type Output struct {
	Statistics *lifecycle.Statistics `json:"statistics"`
}
