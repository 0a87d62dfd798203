package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/tenxdev/internal/apperror"
	"github.com/sakif/tenxdev/internal/model"
	"github.com/sakif/tenxdev/internal/repository"
)

// SavedItemService manages a user's saved cards and videos.
type SavedItemService struct {
	items    repository.SavedItemRepository
	cards    repository.CardRepository
	contents repository.ContentRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewSavedItemService(items repository.SavedItemRepository, cards repository.CardRepository,
	contents repository.ContentRepository, logger *slog.Logger) *SavedItemService {
	return &SavedItemService{
		items:    items,
		cards:    cards,
		contents: contents,
		logger:   logger,
		now:      time.Now,
	}
}

// SavedStatus answers IsSaved.
type SavedStatus struct {
	Saved bool `json:"saved"`
}

// Save bookmarks an item for user.
//
// The saved item must exist: a card must be a stored card the user can see and
// a video a stored content of type video. Saving the same item twice is a 409,
// decided by the store's unique index rather than a lookup first.
func (s *SavedItemService) Save(ctx context.Context, user *model.User, itemType model.ItemType, itemID string) Result[*model.SavedItem] {
	userID := viewerID(user)
	itemID = strings.TrimSpace(itemID)
	if err := checkItemRef(itemType, itemID); err != nil {
		return failure[*model.SavedItem](s.logger, "save item", err)
	}
	if err := s.ensureExists(ctx, user, itemType, itemID); err != nil {
		return failure[*model.SavedItem](s.logger, "save item", err)
	}

	item := &model.SavedItem{
		UserID:    userID,
		ItemType:  itemType,
		ItemID:    itemID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.items.Create(ctx, item); err != nil {
		return failure[*model.SavedItem](s.logger, "save item", err)
	}

	s.logger.Info("item saved",
		slog.String("user", userID),
		slog.String("type", string(itemType)),
		slog.String("item", itemID),
	)
	return created(item)
}

func (s *SavedItemService) ensureExists(ctx context.Context, user *model.User, itemType model.ItemType, itemID string) error {
	switch itemType {
	case model.ItemCard:
		_, err := visibleCard(ctx, s.cards, itemID, user)
		return err
	case model.ItemVideo:
		c, err := s.contents.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if c.Type != model.ContentVideo {
			return apperror.NotFound("video", itemID)
		}
	}
	return nil
}

// Unsave removes a bookmark. Removing one that does not exist is a 404.
func (s *SavedItemService) Unsave(ctx context.Context, userID string, itemType model.ItemType, itemID string) Result[Deleted] {
	itemID = strings.TrimSpace(itemID)
	if err := checkItemRef(itemType, itemID); err != nil {
		return failure[Deleted](s.logger, "unsave item", err)
	}
	if err := s.items.Delete(ctx, userID, itemType, itemID); err != nil {
		return failure[Deleted](s.logger, "unsave item", err)
	}
	return ok(Deleted{IDs: []string{itemID}, Count: 1})
}

// List returns userID's saved items, newest first. An empty or "all" filter
// lists every type.
func (s *SavedItemService) List(ctx context.Context, userID, filter string) Result[[]model.SavedItem] {
	var itemType model.ItemType
	if f := strings.TrimSpace(filter); f != "" && !strings.EqualFold(f, repository.FilterAll) {
		itemType = model.ItemType(f)
		if !itemType.Valid() {
			return failure[[]model.SavedItem](s.logger, "list saved items",
				apperror.ValidationFailed("type", "type must be one of card, video"))
		}
	}

	items, err := s.items.List(ctx, userID, itemType)
	if err != nil {
		return failure[[]model.SavedItem](s.logger, "list saved items", err)
	}
	if items == nil {
		items = []model.SavedItem{}
	}
	return okCount(items, len(items))
}

func (s *SavedItemService) IsSaved(ctx context.Context, userID string, itemType model.ItemType, itemID string) Result[*SavedStatus] {
	itemID = strings.TrimSpace(itemID)
	if err := checkItemRef(itemType, itemID); err != nil {
		return failure[*SavedStatus](s.logger, "check saved item", err)
	}
	saved, err := s.items.Exists(ctx, userID, itemType, itemID)
	if err != nil {
		return failure[*SavedStatus](s.logger, "check saved item", err)
	}
	return ok(&SavedStatus{Saved: saved})
}

func checkItemRef(itemType model.ItemType, itemID string) error {
	var fields []apperror.FieldError
	if !itemType.Valid() {
		fields = append(fields, apperror.FieldError{Field: "item_type", Message: "item_type must be one of card, video"})
	}
	if itemID == "" {
		fields = append(fields, apperror.FieldError{Field: "item_id", Message: "item_id is required"})
	}
	if fields != nil {
		return apperror.Invalid(fields)
	}
	return nil
}
