package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's rating of a card. There is at most one per (card, user);
// submitting again replaces the earlier rating.
type Review struct {
	ID        string    `json:"id"`
	CardID    string    `json:"card_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReviewSummary is the aggregate shown next to a card.
type ReviewSummary struct {
	CardID  string  `json:"card_id"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}
