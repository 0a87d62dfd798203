package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/tenxdev/internal/apperror"
	"github.com/sakif/tenxdev/internal/model"
	"github.com/sakif/tenxdev/internal/repository"
	"github.com/sakif/tenxdev/internal/tags"
	"github.com/sakif/tenxdev/internal/validate"
)

const (
	// MaxBulkSize caps how many cards one bulk request may create or delete.
	MaxBulkSize = 100
	// RecentWindow is how far back GetStats counts a card as recent.
	RecentWindow = 7 * 24 * time.Hour
)

// CardService implements the card operations on top of a CardRepository.
type CardService struct {
	repo   repository.CardRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewCardService(repo repository.CardRepository, logger *slog.Logger) *CardService {
	return &CardService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// clock returns the current instant as the store keeps it.
func (s *CardService) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Create validates doc and stores it as a new card owned by owner (nil for
// an ownerless card). The response carries the generated card and block ids.
func (s *CardService) Create(ctx context.Context, doc map[string]any, owner *model.User) Result[*model.CardFeature] {
	card, err := s.build(doc, owner, s.clock())
	if err != nil {
		return failure[*model.CardFeature](s.logger, "create card", err)
	}
	if err := s.repo.Create(ctx, card); err != nil {
		return failure[*model.CardFeature](s.logger, "create card", err)
	}

	s.logger.Info("card created",
		slog.String("id", card.ID),
		slog.String("title", card.Title),
	)
	return created(card)
}

// build validates one construction document and turns it into a card.
func (s *CardService) build(doc map[string]any, owner *model.User, now time.Time) (*model.CardFeature, error) {
	if err := validate.Card(doc).Err(); err != nil {
		return nil, err
	}
	in, err := decodeDoc[model.CardInput](doc)
	if err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Tags = tags.NormalizeTags(in.Tags)
	if in.Category != "" {
		in.Category = tags.NormalizeTag(in.Category)
	}
	// The owner always comes from the caller, never from the document.
	in.UserID = ""
	if owner != nil {
		in.UserID = owner.ID
	}
	return model.NewCard(in, now), nil
}

// FindByID returns the card if viewer may see it. A private card the viewer
// cannot see is reported as not found.
func (s *CardService) FindByID(ctx context.Context, id string, viewer *model.User) Result[*model.CardFeature] {
	id = strings.TrimSpace(id)
	if id == "" {
		return failure[*model.CardFeature](s.logger, "find card", apperror.ValidationFailed("id", "card ID is required"))
	}

	card, err := visibleCard(ctx, s.repo, id, viewer)
	if err != nil {
		return failure[*model.CardFeature](s.logger, "find card", err)
	}
	return ok(card)
}

// FindAll lists cards matching p. Count is the total number of matches,
// independent of pagination.
func (s *CardService) FindAll(ctx context.Context, p repository.CardListParams, viewer *model.User) Result[[]model.CardFeature] {
	return s.list(ctx, "list cards", s.query(p, viewer))
}

func (s *CardService) query(p repository.CardListParams, viewer *model.User) repository.CardQuery {
	p.Viewer = viewerID(viewer)
	p.ViewAll = viewer.IsAdmin()
	return repository.BuildCardQuery(p)
}

func (s *CardService) list(ctx context.Context, op string, q repository.CardQuery) Result[[]model.CardFeature] {
	cards, total, err := s.repo.List(ctx, q)
	if err != nil {
		return failure[[]model.CardFeature](s.logger, op, err)
	}
	if cards == nil {
		cards = []model.CardFeature{}
	}
	return okCount(cards, total)
}

// Search is FindAll with a required free-text term.
func (s *CardService) Search(ctx context.Context, term string, p repository.CardListParams, viewer *model.User) Result[[]model.CardFeature] {
	if term = strings.TrimSpace(term); term == "" {
		return failure[[]model.CardFeature](s.logger, "search cards", apperror.ValidationFailed("q", "search term is required"))
	}
	p.Search = term
	return s.FindAll(ctx, p, viewer)
}

// FindByTech is FindAll filtered on one tech. The tech comes from the path and
// is matched literally: "all" here is a tech name, not the no-filter value.
func (s *CardService) FindByTech(ctx context.Context, tech string, p repository.CardListParams, viewer *model.User) Result[[]model.CardFeature] {
	if tech = strings.TrimSpace(tech); tech == "" {
		return failure[[]model.CardFeature](s.logger, "list cards by tech", apperror.ValidationFailed("tech", "tech is required"))
	}
	p.Tech = ""
	q := s.query(p, viewer)
	q.Filters = append(q.Filters, repository.Filter{Column: "tech", Value: tech})
	return s.list(ctx, "list cards by tech", q)
}

// Update merges the fields present in doc into the card. Only the owner or an
// admin may change a card; see checkEditable.
//
// The read, the merge and the write happen in one store transaction, so two
// concurrent updates of the same card cannot interleave between the existence
// check and the write. Fields absent from doc keep their stored values;
// updatedAt is always refreshed.
func (s *CardService) Update(ctx context.Context, id string, doc map[string]any, viewer *model.User) Result[*model.CardFeature] {
	id = strings.TrimSpace(id)
	if id == "" {
		return failure[*model.CardFeature](s.logger, "update card", apperror.ValidationFailed("id", "card ID is required"))
	}
	if err := validate.Patch(doc).Err(); err != nil {
		return failure[*model.CardFeature](s.logger, "update card", err)
	}
	patch, err := decodeDoc[model.CardPatch](doc)
	if err != nil {
		return failure[*model.CardFeature](s.logger, "update card", err)
	}
	if patch.Empty() {
		return failure[*model.CardFeature](s.logger, "update card",
			apperror.ValidationFailed("body", "update contains no changes"))
	}
	normalizePatch(&patch)

	now := s.clock()
	card, err := s.repo.Update(ctx, id, func(c *model.CardFeature) error {
		if err := checkEditable(c, viewer); err != nil {
			return err
		}
		patch.Apply(c, now)
		return nil
	})
	if err != nil {
		return failure[*model.CardFeature](s.logger, "update card", err)
	}

	s.logger.Info("card updated", slog.String("id", id))
	return ok(card)
}

func normalizePatch(p *model.CardPatch) {
	if p.Title.Set {
		p.Title.Value = strings.TrimSpace(p.Title.Value)
	}
	if p.Description.Set {
		p.Description.Value = strings.TrimSpace(p.Description.Value)
	}
	if p.Tags.Set {
		p.Tags.Value = tags.NormalizeTags(p.Tags.Value)
	}
	if p.Category.Set && p.Category.Value != "" {
		p.Category.Value = tags.NormalizeTag(p.Category.Value)
	}
}

// Delete removes one card. A missing id is a 404, and so is a card the viewer
// cannot see.
func (s *CardService) Delete(ctx context.Context, id string, viewer *model.User) Result[Deleted] {
	id = strings.TrimSpace(id)
	if id == "" {
		return failure[Deleted](s.logger, "delete card", apperror.ValidationFailed("id", "card ID is required"))
	}
	card, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return failure[Deleted](s.logger, "delete card", err)
	}
	// The owner column never changes, so the check cannot go stale before
	// the delete.
	if err := checkEditable(card, viewer); err != nil {
		return failure[Deleted](s.logger, "delete card", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return failure[Deleted](s.logger, "delete card", err)
	}

	s.logger.Info("card deleted", slog.String("id", id))
	return ok(Deleted{IDs: []string{id}, Count: 1})
}

// GetStats counts every card, grouped by tech and by language, plus those
// created within RecentWindow.
//
// The counts are reduced here from a three-column projection rather than
// with GROUP BY in the database.
func (s *CardService) GetStats(ctx context.Context) Result[model.CardStats] {
	rows, err := s.repo.Summaries(ctx)
	if err != nil {
		return failure[model.CardStats](s.logger, "card stats", err)
	}

	stats := model.CardStats{
		Total:      len(rows),
		ByTech:     make(map[string]int),
		ByLanguage: make(map[string]int),
	}
	cutoff := s.now().Add(-RecentWindow)
	for _, r := range rows {
		if r.Tech != "" {
			stats.ByTech[r.Tech]++
		}
		if r.Language != "" {
			stats.ByLanguage[r.Language]++
		}
		if r.CreatedAt.After(cutoff) {
			stats.RecentCount++
		}
	}
	return ok(stats)
}

// BulkCreate validates every document first and reports all violations at
// once, each path prefixed with the item's index ("[3].title"). Only a fully
// valid batch is written, and it is written in one transaction.
func (s *CardService) BulkCreate(ctx context.Context, docs []map[string]any, owner *model.User) Result[[]*model.CardFeature] {
	if err := checkBatchSize("cards", len(docs)); err != nil {
		return failure[[]*model.CardFeature](s.logger, "bulk create cards", err)
	}

	now := s.clock()
	cards := make([]*model.CardFeature, 0, len(docs))
	var violations []apperror.FieldError
	for i, doc := range docs {
		card, err := s.build(doc, owner, now)
		if err != nil {
			fields := apperror.FieldsOf(err)
			if len(fields) == 0 {
				fields = []apperror.FieldError{{Message: err.Error()}}
			}
			violations = append(violations, apperror.Prefix(fmt.Sprintf("[%d]", i), fields)...)
			continue
		}
		cards = append(cards, card)
	}
	if len(violations) > 0 {
		return failure[[]*model.CardFeature](s.logger, "bulk create cards", apperror.Invalid(violations))
	}

	if err := s.repo.CreateMany(ctx, cards); err != nil {
		return failure[[]*model.CardFeature](s.logger, "bulk create cards", err)
	}

	s.logger.Info("cards created", slog.Int("count", len(cards)))
	r := created(cards)
	n := len(cards)
	r.Count = &n
	return r
}

// BulkDelete deletes every id or none. Duplicate ids are collapsed; a blank id
// is a validation error and any missing id fails the whole batch with 404.
func (s *CardService) BulkDelete(ctx context.Context, ids []string) Result[Deleted] {
	if err := checkBatchSize("ids", len(ids)); err != nil {
		return failure[Deleted](s.logger, "bulk delete cards", err)
	}

	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	var violations []apperror.FieldError
	for i, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			violations = append(violations, apperror.FieldError{
				Field:   fmt.Sprintf("[%d]", i),
				Message: "card ID is required",
			})
			continue
		}
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(violations) > 0 {
		return failure[Deleted](s.logger, "bulk delete cards", apperror.Invalid(violations))
	}

	if err := s.repo.DeleteMany(ctx, unique); err != nil {
		return failure[Deleted](s.logger, "bulk delete cards", err)
	}

	s.logger.Info("cards deleted", slog.Int("count", len(unique)))
	return ok(Deleted{IDs: unique, Count: len(unique)})
}

func checkBatchSize(field string, n int) error {
	switch {
	case n == 0:
		return apperror.ValidationFailed(field, "at least one item is required")
	case n > MaxBulkSize:
		return apperror.ValidationFailed(field, fmt.Sprintf("at most %d items per request", MaxBulkSize))
	}
	return nil
}

// checkEditable allows admins and the card's owner. A card the viewer cannot
// see is reported as not found, so a stranger learns nothing about it; a
// visible card owned by someone else is forbidden. Ownerless cards are
// admin-only.
func checkEditable(card *model.CardFeature, viewer *model.User) error {
	if viewer.IsAdmin() {
		return nil
	}
	id := viewerID(viewer)
	if !card.CanView(id) {
		return apperror.NotFound("card", card.ID)
	}
	if id == "" || card.UserID != id {
		return apperror.Forbidden("only the card's owner can change it")
	}
	return nil
}

// visibleCard loads a card and hides it from viewers who may not see it.
func visibleCard(ctx context.Context, cards repository.CardRepository, id string, viewer *model.User) (*model.CardFeature, error) {
	card, err := cards.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !viewer.IsAdmin() && !card.CanView(viewerID(viewer)) {
		return nil, apperror.NotFound("card", id)
	}
	return card, nil
}

func viewerID(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}

// decodeDoc converts an already validated document into T. The validators
// have checked every type, so a failure here is a bug rather than bad input.
func decodeDoc[T any](doc map[string]any) (T, error) {
	var v T
	raw, err := json.Marshal(doc)
	if err != nil {
		return v, fmt.Errorf("encoding document: %w", err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decoding document: %w", err)
	}
	return v, nil
}
