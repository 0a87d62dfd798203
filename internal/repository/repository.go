// Package repository declares the persistence contracts the services depend on.
//
// Implementations live in sub-packages (sqlstore). Every method returns errors
// from the apperror taxonomy for expected failures (NotFound, Conflict,
// Validation) so callers switch on apperror.KindOf instead of driver codes.
package repository

import (
	"context"

	"github.com/sakif/tenxdev/internal/model"
)

// CardUpdateFunc mutates a card inside the store's update transaction.
// Returning an error aborts the update and rolls back.
type CardUpdateFunc func(card *model.CardFeature) error

type CardRepository interface {
	Create(ctx context.Context, card *model.CardFeature) error
	// CreateMany inserts every card or none of them.
	CreateMany(ctx context.Context, cards []*model.CardFeature) error
	GetByID(ctx context.Context, id string) (*model.CardFeature, error)
	// List returns one page of cards and the total number of matches.
	List(ctx context.Context, q CardQuery) ([]model.CardFeature, int, error)
	// Update reads the card, applies fn and writes it back in one transaction.
	Update(ctx context.Context, id string, fn CardUpdateFunc) (*model.CardFeature, error)
	Delete(ctx context.Context, id string) error
	// DeleteMany deletes every id or none of them. A missing id is NotFound.
	DeleteMany(ctx context.Context, ids []string) error
	// Summaries returns the (tech, language, created_at) projection of every card.
	Summaries(ctx context.Context) ([]model.CardSummary, error)
}

type SavedItemRepository interface {
	// Create fails with a Conflict when the (user, type, item) triple is already saved.
	Create(ctx context.Context, item *model.SavedItem) error
	Delete(ctx context.Context, userID string, itemType model.ItemType, itemID string) error
	// List returns the user's saved items, newest first. An empty itemType lists every type.
	List(ctx context.Context, userID string, itemType model.ItemType) ([]model.SavedItem, error)
	Exists(ctx context.Context, userID string, itemType model.ItemType, itemID string) (bool, error)
}

// ContentUpdateFunc mutates a content row inside the store's update transaction.
type ContentUpdateFunc func(content *model.Content) error

type ContentRepository interface {
	// Create fails with a Conflict when the slug is taken.
	Create(ctx context.Context, content *model.Content) error
	GetByID(ctx context.Context, id string) (*model.Content, error)
	GetBySlug(ctx context.Context, slug string) (*model.Content, error)
	List(ctx context.Context, q ContentQuery) ([]model.Content, int, error)
	Update(ctx context.Context, id string, fn ContentUpdateFunc) (*model.Content, error)
	// Delete removes the row and returns it as it was.
	Delete(ctx context.Context, id string) (*model.Content, error)
}

type ReviewRepository interface {
	// Upsert inserts the review or replaces the rating and comment of the
	// caller's existing review for the same card. It fills in ID and timestamps.
	Upsert(ctx context.Context, review *model.Review) error
	ListByCard(ctx context.Context, cardID string) ([]model.Review, error)
	Summary(ctx context.Context, cardID string) (model.ReviewSummary, error)
	Delete(ctx context.Context, cardID, userID string) error
}

type UserRepository interface {
	// Upsert creates the user on first sight and refreshes email and name
	// afterwards. The stored role is only ever raised to admin, never lowered.
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}
