package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/tenxdev/internal/apperror"
	"github.com/sakif/tenxdev/internal/model"
	"github.com/sakif/tenxdev/internal/repository"
)

// MaxCommentLength bounds a review comment, in bytes.
const MaxCommentLength = 2000

type ReviewService struct {
	reviews repository.ReviewRepository
	cards   repository.CardRepository
	logger  *slog.Logger
	now     func() time.Time
}

func NewReviewService(reviews repository.ReviewRepository, cards repository.CardRepository, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		cards:   cards,
		logger:  logger,
		now:     time.Now,
	}
}

// Upsert records user's rating of the card, replacing any earlier one. The
// card must be one the user can see.
func (s *ReviewService) Upsert(ctx context.Context, cardID string, user *model.User, rating int, comment string) Result[*model.Review] {
	userID := viewerID(user)
	cardID = strings.TrimSpace(cardID)
	comment = strings.TrimSpace(comment)

	var fields []apperror.FieldError
	if rating < model.MinRating || rating > model.MaxRating {
		fields = append(fields, apperror.FieldError{
			Field:   "rating",
			Message: fmt.Sprintf("rating must be between %d and %d", model.MinRating, model.MaxRating),
		})
	}
	if len(comment) > MaxCommentLength {
		fields = append(fields, apperror.FieldError{
			Field:   "comment",
			Message: fmt.Sprintf("comment must be %d characters or less", MaxCommentLength),
		})
	}
	if fields != nil {
		return failure[*model.Review](s.logger, "review card", apperror.Invalid(fields))
	}

	if _, err := visibleCard(ctx, s.cards, cardID, user); err != nil {
		return failure[*model.Review](s.logger, "review card", err)
	}

	r := &model.Review{
		CardID:    cardID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.reviews.Upsert(ctx, r); err != nil {
		return failure[*model.Review](s.logger, "review card", err)
	}

	s.logger.Info("card reviewed",
		slog.String("card", cardID),
		slog.String("user", userID),
		slog.Int("rating", rating),
	)
	return ok(r)
}

// ListForCard returns every review of the card, with Count set. A card the
// viewer cannot see is a 404.
func (s *ReviewService) ListForCard(ctx context.Context, cardID string, viewer *model.User) Result[[]model.Review] {
	cardID = strings.TrimSpace(cardID)
	if _, err := visibleCard(ctx, s.cards, cardID, viewer); err != nil {
		return failure[[]model.Review](s.logger, "list reviews", err)
	}
	list, err := s.reviews.ListByCard(ctx, cardID)
	if err != nil {
		return failure[[]model.Review](s.logger, "list reviews", err)
	}
	if list == nil {
		list = []model.Review{}
	}
	return okCount(list, len(list))
}

func (s *ReviewService) Summary(ctx context.Context, cardID string, viewer *model.User) Result[model.ReviewSummary] {
	cardID = strings.TrimSpace(cardID)
	if _, err := visibleCard(ctx, s.cards, cardID, viewer); err != nil {
		return failure[model.ReviewSummary](s.logger, "review summary", err)
	}
	sum, err := s.reviews.Summary(ctx, cardID)
	if err != nil {
		return failure[model.ReviewSummary](s.logger, "review summary", err)
	}
	sum.CardID = cardID
	return ok(sum)
}

// Delete removes userID's review of the card. No review is a 404.
func (s *ReviewService) Delete(ctx context.Context, cardID, userID string) Result[Deleted] {
	cardID = strings.TrimSpace(cardID)
	if err := s.reviews.Delete(ctx, cardID, userID); err != nil {
		return failure[Deleted](s.logger, "delete review", err)
	}
	return ok(Deleted{IDs: []string{cardID}, Count: 1})
}
