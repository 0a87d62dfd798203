package model

import "time"

// ItemType is the kind of entity a user can save.
type ItemType string

const (
	ItemCard  ItemType = "card"
	ItemVideo ItemType = "video"
)

func (t ItemType) Valid() bool {
	return t == ItemCard || t == ItemVideo
}

// SavedItem associates a user with a saved card or video.
// (UserID, ItemType, ItemID) is unique: saving twice is a conflict.
type SavedItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ItemType  ItemType  `json:"item_type"`
	ItemID    string    `json:"item_id"`
	CreatedAt time.Time `json:"createdAt"`
}
