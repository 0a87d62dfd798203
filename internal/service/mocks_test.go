package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sakif/tenxdev/internal/apperror"
	"github.com/sakif/tenxdev/internal/model"
	"github.com/sakif/tenxdev/internal/repository"
)

// =========================================================================
// MOCK REPOSITORIES
// =========================================================================
//
// Hand-written in-memory implementations of the repository interfaces.
// They store copies, never the caller's pointers, and return NotFound and
// Conflict errors from the apperror taxonomy just like sqlstore does.
// Setting err makes every call fail with it, to simulate a broken database.

var errDBDown = errors.New("connection refused")

type mockCardRepo struct {
	mu    sync.Mutex
	cards map[string]model.CardFeature
	err   error
}

func newMockCardRepo() *mockCardRepo {
	return &mockCardRepo{cards: make(map[string]model.CardFeature)}
}

func (m *mockCardRepo) Create(_ context.Context, c *model.CardFeature) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.cards[c.ID]; ok {
		return apperror.AlreadyExists("card exists")
	}
	m.cards[c.ID] = *c
	return nil
}

func (m *mockCardRepo) CreateMany(ctx context.Context, cards []*model.CardFeature) error {
	m.mu.Lock()
	if m.err != nil {
		m.mu.Unlock()
		return m.err
	}
	m.mu.Unlock()
	for _, c := range cards {
		if err := m.Create(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockCardRepo) GetByID(_ context.Context, id string) (*model.CardFeature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.cards[id]
	if !ok {
		return nil, apperror.NotFound("card", id)
	}
	return &c, nil
}

func (m *mockCardRepo) List(_ context.Context, q repository.CardQuery) ([]model.CardFeature, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}

	var out []model.CardFeature
	for _, c := range m.cards {
		if !q.ViewAll && !c.CanView(q.Viewer) {
			continue
		}
		if !matchesFilters(c, q.Filters) {
			continue
		}
		if q.Search != "" && !matchesSearch(c, q.Search) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if q.Sort.Desc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	total := len(out)
	if q.Range != nil {
		from, to := q.Range.From, q.Range.To+1
		if from > len(out) {
			from = len(out)
		}
		if to > len(out) {
			to = len(out)
		}
		out = out[from:to]
	}
	return out, total, nil
}

func matchesFilters(c model.CardFeature, filters []repository.Filter) bool {
	for _, f := range filters {
		var v string
		switch f.Column {
		case "tech":
			v = c.Tech
		case "language":
			v = c.Language
		case "content_type":
			v = string(c.ContentType)
		case "card_type":
			v = string(c.CardType)
		case "visibility":
			v = string(c.Visibility)
		}
		if v != f.Value {
			return false
		}
	}
	return true
}

func matchesSearch(c model.CardFeature, term string) bool {
	term = strings.ToLower(term)
	for _, s := range []string{c.Title, c.Description, c.Tech} {
		if strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

func (m *mockCardRepo) Update(_ context.Context, id string, fn repository.CardUpdateFunc) (*model.CardFeature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.cards[id]
	if !ok {
		return nil, apperror.NotFound("card", id)
	}
	if err := fn(&c); err != nil {
		return nil, err
	}
	m.cards[id] = c
	return &c, nil
}

func (m *mockCardRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.cards[id]; !ok {
		return apperror.NotFound("card", id)
	}
	delete(m.cards, id)
	return nil
}

func (m *mockCardRepo) DeleteMany(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, id := range ids {
		if _, ok := m.cards[id]; !ok {
			return apperror.NotFound("card", id)
		}
	}
	for _, id := range ids {
		delete(m.cards, id)
	}
	return nil
}

func (m *mockCardRepo) Summaries(_ context.Context) ([]model.CardSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]model.CardSummary, 0, len(m.cards))
	for _, c := range m.cards {
		out = append(out, model.CardSummary{Tech: c.Tech, Language: c.Language, CreatedAt: c.CreatedAt})
	}
	return out, nil
}

type savedKey struct {
	user, itemType, item string
}

type mockSavedItemRepo struct {
	mu    sync.Mutex
	items map[savedKey]model.SavedItem
	seq   int
}

func newMockSavedItemRepo() *mockSavedItemRepo {
	return &mockSavedItemRepo{items: make(map[savedKey]model.SavedItem)}
}

func (m *mockSavedItemRepo) Create(_ context.Context, it *model.SavedItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := savedKey{it.UserID, string(it.ItemType), it.ItemID}
	if _, ok := m.items[k]; ok {
		return apperror.AlreadyExists(string(it.ItemType) + " " + it.ItemID + " is already saved")
	}
	m.seq++
	it.ID = fmt.Sprintf("saved-%03d", m.seq)
	m.items[k] = *it
	return nil
}

func (m *mockSavedItemRepo) Delete(_ context.Context, userID string, t model.ItemType, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := savedKey{userID, string(t), itemID}
	if _, ok := m.items[k]; !ok {
		return apperror.NotFound("saved "+string(t), itemID)
	}
	delete(m.items, k)
	return nil
}

func (m *mockSavedItemRepo) List(_ context.Context, userID string, t model.ItemType) ([]model.SavedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SavedItem
	for k, it := range m.items {
		if k.user == userID && (t == "" || k.itemType == string(t)) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockSavedItemRepo) Exists(_ context.Context, userID string, t model.ItemType, itemID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[savedKey{userID, string(t), itemID}]
	return ok, nil
}

type mockContentRepo struct {
	mu       sync.Mutex
	contents map[string]model.Content
}

func newMockContentRepo() *mockContentRepo {
	return &mockContentRepo{contents: make(map[string]model.Content)}
}

func (m *mockContentRepo) Create(_ context.Context, c *model.Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.contents {
		if other.Slug == c.Slug {
			return apperror.AlreadyExists("slug " + c.Slug + " is already taken")
		}
	}
	m.contents[c.ID] = *c
	return nil
}

func (m *mockContentRepo) GetByID(_ context.Context, id string) (*model.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contents[id]
	if !ok {
		return nil, apperror.NotFound("content", id)
	}
	return &c, nil
}

func (m *mockContentRepo) GetBySlug(_ context.Context, slug string) (*model.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contents {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, apperror.NotFound("content", slug)
}

func (m *mockContentRepo) List(_ context.Context, q repository.ContentQuery) ([]model.Content, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Content
	for _, c := range m.contents {
		if q.Type != "" && c.Type != q.Type {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(c.Title+" "+c.Description), strings.ToLower(q.Search)) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, len(out), nil
}

func (m *mockContentRepo) Update(_ context.Context, id string, fn repository.ContentUpdateFunc) (*model.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contents[id]
	if !ok {
		return nil, apperror.NotFound("content", id)
	}
	if err := fn(&c); err != nil {
		return nil, err
	}
	m.contents[id] = c
	return &c, nil
}

func (m *mockContentRepo) Delete(_ context.Context, id string) (*model.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contents[id]
	if !ok {
		return nil, apperror.NotFound("content", id)
	}
	delete(m.contents, id)
	return &c, nil
}

type mockReviewRepo struct {
	mu      sync.Mutex
	reviews map[[2]string]model.Review
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{reviews: make(map[[2]string]model.Review)}
}

func (m *mockReviewRepo) Upsert(_ context.Context, r *model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]string{r.CardID, r.UserID}
	if old, ok := m.reviews[k]; ok {
		r.ID, r.CreatedAt = old.ID, old.CreatedAt
	} else {
		r.ID = "review-" + r.CardID + "-" + r.UserID
		r.CreatedAt = r.UpdatedAt
	}
	m.reviews[k] = *r
	return nil
}

func (m *mockReviewRepo) ListByCard(_ context.Context, cardID string) ([]model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Review
	for k, r := range m.reviews {
		if k[0] == cardID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *mockReviewRepo) Summary(ctx context.Context, cardID string) (model.ReviewSummary, error) {
	list, _ := m.ListByCard(ctx, cardID)
	s := model.ReviewSummary{CardID: cardID, Count: len(list)}
	if len(list) == 0 {
		return s, nil
	}
	sum := 0
	for _, r := range list {
		sum += r.Rating
	}
	s.Average = float64(sum) / float64(len(list))
	return s, nil
}

func (m *mockReviewRepo) Delete(_ context.Context, cardID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]string{cardID, userID}
	if _, ok := m.reviews[k]; !ok {
		return apperror.NotFound("review", cardID)
	}
	delete(m.reviews, k)
	return nil
}

// mockStorage resolves paths under a fixed public prefix and records removals.
type mockStorage struct {
	removed   []string
	removeErr error
}

const mockPublicPrefix = "https://proj.supabase.co/storage/v1/object/public/docs/"

func (m *mockStorage) PublicURL(path string) (string, error) {
	return mockPublicPrefix + strings.TrimLeft(path, "/"), nil
}

func (m *mockStorage) ObjectPath(u string) (string, bool) {
	p, ok := strings.CutPrefix(u, mockPublicPrefix)
	return p, ok && p != ""
}

func (m *mockStorage) Remove(_ context.Context, paths ...string) error {
	m.removed = append(m.removed, paths...)
	return m.removeErr
}

// =========================================================================
// TEST HELPERS
// =========================================================================

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCardService(t *testing.T) (*CardService, *mockCardRepo) {
	t.Helper()
	repo := newMockCardRepo()
	svc := NewCardService(repo, testLogger())
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

// cardDoc is the minimal valid construction document, as the JSON decoder
// would produce it.
func cardDoc() map[string]any {
	return map[string]any{
		"title":        "X",
		"description":  "Y",
		"card_type":    "code",
		"content_type": "code",
		"screens": []any{
			map[string]any{
				"name": "Main",
				"blocks": []any{
					map[string]any{"type": "code", "content": "print(1)", "order": float64(0)},
				},
			},
		},
	}
}

func with(doc map[string]any, kv ...any) map[string]any {
	for i := 0; i+1 < len(kv); i += 2 {
		doc[kv[i].(string)] = kv[i+1]
	}
	return doc
}

func intPtr(n int) *int { return &n }
