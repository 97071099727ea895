package expirematches

type Input struct {
	MaxAgeDays int `json:"maxAgeDays,omitempty"`
}

type Output struct {
	Expired    int `json:"expired"`
	MaxAgeDays int `json:"maxAgeDays"`
}
