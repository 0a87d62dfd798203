package model

import (
	"encoding/json"
	"time"
)

// Optional marks a patch field as present or absent.
//
// A JSON field that is missing from the request body leaves Set false, so the
// merge leaves the stored value alone. A field that is present (even as null or
// "") sets Set and carries its value.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns a present Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// Get returns the value and whether it was set.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// CardPatch is a partial update of a card. Only Set fields change.
type CardPatch struct {
	Title       Optional[string]        `json:"title"`
	Description Optional[string]        `json:"description"`
	Tech        Optional[string]        `json:"tech"`
	Language    Optional[string]        `json:"language"`
	CardType    Optional[CardType]      `json:"card_type"`
	ContentType Optional[ContentType]   `json:"content_type"`
	Category    Optional[string]        `json:"category"`
	Tags        Optional[[]string]      `json:"tags"`
	Visibility  Optional[Visibility]    `json:"visibility"`
	SharedWith  Optional[[]string]      `json:"shared_with"`
	Screens     Optional[[]ScreenInput] `json:"screens"`
}

// Apply merges the patch into c and refreshes UpdatedAt. Identity, owner and
// CreatedAt are never touched.
func (p CardPatch) Apply(c *CardFeature, now time.Time) {
	set(&c.Title, p.Title)
	set(&c.Description, p.Description)
	set(&c.Tech, p.Tech)
	set(&c.Language, p.Language)
	set(&c.CardType, p.CardType)
	set(&c.ContentType, p.ContentType)
	set(&c.Category, p.Category)
	set(&c.Visibility, p.Visibility)
	if v, ok := p.Tags.Get(); ok {
		c.Tags = nonNil(v)
	}
	if v, ok := p.SharedWith.Get(); ok {
		c.SharedWith = nonNil(v)
	}
	if v, ok := p.Screens.Get(); ok {
		c.Screens = BuildScreens(v, c.Screens)
	}
	c.UpdatedAt = now
}

// Empty reports whether no field is set.
func (p CardPatch) Empty() bool {
	return !(p.Title.Set || p.Description.Set || p.Tech.Set || p.Language.Set ||
		p.CardType.Set || p.ContentType.Set || p.Category.Set || p.Tags.Set ||
		p.Visibility.Set || p.SharedWith.Set || p.Screens.Set)
}

func set[T any](dst *T, o Optional[T]) {
	if o.Set {
		*dst = o.Value
	}
}
