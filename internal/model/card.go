// Package model defines the data structures used throughout the application.
// They carry no persistence or HTTP logic; stores and handlers convert to and
// from them.
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CardType distinguishes a code snippet card from a written post.
type CardType string

const (
	CardTypeCode CardType = "code"
	CardTypePost CardType = "post"
)

// ContentType is the kind of content a card (or a single block) carries.
type ContentType string

const (
	ContentText     ContentType = "text"
	ContentCode     ContentType = "code"
	ContentTerminal ContentType = "terminal"
	ContentCoding   ContentType = "coding"
)

// Visibility controls who can list and read a card.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// CardTypes, ContentTypes and Visibilities are the closed enums a card is checked against.
var (
	CardTypes    = []CardType{CardTypeCode, CardTypePost}
	ContentTypes = []ContentType{ContentText, ContentCode, ContentTerminal, ContentCoding}
	Visibilities = []Visibility{VisibilityPublic, VisibilityPrivate}
)

func (t CardType) Valid() bool {
	for _, v := range CardTypes {
		if t == v {
			return true
		}
	}
	return false
}

func (t ContentType) Valid() bool {
	for _, v := range ContentTypes {
		if t == v {
			return true
		}
	}
	return false
}

func (v Visibility) Valid() bool {
	for _, x := range Visibilities {
		if v == x {
			return true
		}
	}
	return false
}

// CardFeature is a user-authored content unit: an ordered list of screens,
// each holding an ordered list of blocks.
//
// The `json:"..."` tags keep the wire format snake_case, matching the columns of
// the card_features table. The timestamps are the exception: the frontend reads
// them as createdAt/updatedAt.
type CardFeature struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Tech        string      `json:"tech"`
	Language    string      `json:"language"`
	CardType    CardType    `json:"card_type"`
	ContentType ContentType `json:"content_type"`
	Category    string      `json:"category,omitempty"`
	Tags        []string    `json:"tags"`
	Visibility  Visibility  `json:"visibility"`
	UserID      string      `json:"user_id,omitempty"`
	SharedWith  []string    `json:"shared_with"`
	Screens     []Screen    `json:"screens"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Screen is a named grouping of blocks (a "tab" or "file" in the UI).
type Screen struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Blocks      []Block `json:"blocks"`
}

// Block is the smallest content unit within a screen.
type Block struct {
	ID       string      `json:"id"`
	Type     ContentType `json:"type"`
	Content  string      `json:"content"`
	Order    int         `json:"order"`
	Language string      `json:"language,omitempty"`
	Title    string      `json:"title,omitempty"`
}

// CardInput is the construction request for a card. It is decoded only after
// the raw document has passed validate.Card, so types are already known good.
type CardInput struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Tech        string        `json:"tech"`
	Language    string        `json:"language"`
	CardType    CardType      `json:"card_type"`
	ContentType ContentType   `json:"content_type"`
	Category    string        `json:"category"`
	Tags        []string      `json:"tags"`
	Visibility  Visibility    `json:"visibility"`
	UserID      string        `json:"user_id"`
	SharedWith  []string      `json:"shared_with"`
	Screens     []ScreenInput `json:"screens"`
}

type ScreenInput struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Blocks      []BlockInput `json:"blocks"`
}

// BlockInput mirrors Block, except that ID and Order may be absent.
type BlockInput struct {
	ID       string      `json:"id"`
	Type     ContentType `json:"type"`
	Content  string      `json:"content"`
	Order    *int        `json:"order"`
	Language string      `json:"language"`
	Title    string      `json:"title"`
}

// UnmarshalJSON accepts an order written in any whole-number form (2, 2.0,
// 2e0).
func (b *BlockInput) UnmarshalJSON(data []byte) error {
	type plain BlockInput
	var aux struct {
		plain
		Order *float64 `json:"order"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*b = BlockInput(aux.plain)
	b.Order = nil
	if aux.Order != nil {
		n := int(*aux.Order)
		if float64(n) != *aux.Order {
			return fmt.Errorf("block order %v is not a whole number", *aux.Order)
		}
		b.Order = &n
	}
	return nil
}

// NewCard builds a CardFeature from a construction request: a fresh UUID,
// fresh block ids, orders filled in and both timestamps set to now.
func NewCard(in CardInput, now time.Time) *CardFeature {
	visibility := in.Visibility
	if visibility == "" {
		visibility = VisibilityPublic
	}
	return &CardFeature{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Tech:        in.Tech,
		Language:    in.Language,
		CardType:    in.CardType,
		ContentType: in.ContentType,
		Category:    in.Category,
		Tags:        nonNil(in.Tags),
		Visibility:  visibility,
		UserID:      in.UserID,
		SharedWith:  nonNil(in.SharedWith),
		Screens:     BuildScreens(in.Screens, nil),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// BuildScreens turns screen inputs into stored screens. Blocks without an id get
// a new UUID, unless their id matches one in existing (so edits keep block
// identity). A block without an order takes its position in the screen.
func BuildScreens(in []ScreenInput, existing []Screen) []Screen {
	known := make(map[string]bool)
	for _, s := range existing {
		for _, b := range s.Blocks {
			known[b.ID] = true
		}
	}

	screens := make([]Screen, 0, len(in))
	for _, si := range in {
		blocks := make([]Block, 0, len(si.Blocks))
		for i, bi := range si.Blocks {
			id := bi.ID
			if id == "" || !known[id] {
				id = uuid.NewString()
			}
			order := i
			if bi.Order != nil {
				order = *bi.Order
			}
			blocks = append(blocks, Block{
				ID:       id,
				Type:     bi.Type,
				Content:  bi.Content,
				Order:    order,
				Language: bi.Language,
				Title:    bi.Title,
			})
		}
		screens = append(screens, Screen{
			Name:        si.Name,
			Description: si.Description,
			Blocks:      blocks,
		})
	}
	return screens
}

// CanView reports whether userID may read the card. Anonymous viewers pass "".
func (c *CardFeature) CanView(userID string) bool {
	if c.Visibility != VisibilityPrivate {
		return true
	}
	if userID == "" {
		return false
	}
	if c.UserID == userID {
		return true
	}
	for _, u := range c.SharedWith {
		if u == userID {
			return true
		}
	}
	return false
}

// CardStats aggregates counts across every card.
type CardStats struct {
	Total       int            `json:"total"`
	ByTech      map[string]int `json:"byTech"`
	ByLanguage  map[string]int `json:"byLanguage"`
	RecentCount int            `json:"recentCount"`
}

// CardSummary is the projection GetStats reduces over.
type CardSummary struct {
	Tech      string
	Language  string
	CreatedAt time.Time
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
