package votes

import "time"

type Vote struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Options     OptionSet `json:"options"`
	CreatedBy   *int64    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Ballot struct {
	ID        int64     `json:"id"`
	VoteID    int64     `json:"vote_id"`
	UserID    int64     `json:"user_id"`
	Option    string    `json:"option"`
	CreatedAt time.Time `json:"created_at"`
}

type OptionCount struct {
	Option string `json:"option"`
	Count  int    `json:"count"`
}

// Result is a vote plus its tally, zero-filled over the declared option set.
type Result struct {
	Vote
	Tally      []OptionCount `json:"tally"`
	TotalVotes int           `json:"totalVotes"`
}
