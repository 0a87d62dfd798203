package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/tenxdev/internal/apperror"
	"github.com/sakif/tenxdev/internal/auth"
	"github.com/sakif/tenxdev/internal/config"
)

const testSecret = "test-secret-0123456789abcdef"

// envelope mirrors the JSON every endpoint returns.
type envelope struct {
	Success    bool                  `json:"success"`
	Data       json.RawMessage       `json:"data"`
	Error      string                `json:"error"`
	StatusCode int                   `json:"statusCode"`
	Count      *int                  `json:"count"`
	Errors     []apperror.FieldError `json:"errors"`
}

func (e envelope) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Data, v), string(e.Data))
}

type testAPI struct {
	t       *testing.T
	handler http.Handler
	tokens  *auth.TokenService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.DSN = ":memory:"
	cfg.Auth.JWTSecret = testSecret
	cfg.AdminEmails = []string{"admin@example.com"}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(context.Background(), cfg, logger, "test")
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	tokens, err := auth.NewTokenService(testSecret, "")
	require.NoError(t, err)
	return &testAPI{t: t, handler: srv.Handler(), tokens: tokens}
}

// with returns a copy that reports failures to t, for use inside subtests.
func (a *testAPI) with(t *testing.T) *testAPI {
	c := *a
	c.t = t
	return &c
}

// token signs a token for a user whose id and email derive from name.
func (a *testAPI) token(name string) string {
	a.t.Helper()
	tok, err := a.tokens.Generate(auth.Identity{
		Subject: name + "-id",
		Email:   name + "@example.com",
		Name:    name,
	}, time.Hour)
	require.NoError(a.t, err)
	return tok
}

// do sends the request and checks that the status line and the envelope's
// statusCode agree.
func (a *testAPI) do(method, path, token string, body any) envelope {
	a.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	assert.Equal(a.t, "application/json", rec.Header().Get("Content-Type"))
	var env envelope
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	assert.Equal(a.t, rec.Code, env.StatusCode, "status line mirrors the envelope")
	return env
}

func cardBody(title string) map[string]any {
	return map[string]any{
		"title":        title,
		"description":  "How " + title + " works",
		"tech":         "Go",
		"language":     "go",
		"card_type":    "code",
		"content_type": "code",
		"tags":         []string{"golang", "Concurrency"},
		"screens": []any{
			map[string]any{
				"name": "Main",
				"blocks": []any{
					map[string]any{"type": "code", "content": "go f()", "order": 0},
				},
			},
		},
	}
}

type cardJSON struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Tags       []string `json:"tags"`
	UserID     string   `json:"user_id"`
	Visibility string   `json:"visibility"`
}

// =========================================================================
// HEALTH & SESSION
// =========================================================================

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	env := api.do(http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, env.StatusCode)
	var status struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Version  string `json:"version"`
	}
	env.decode(t, &status)
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "test", status.Version)
}

func TestMe(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/me", "", nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/me", "not-a-jwt", nil).StatusCode)

	env := api.do(http.MethodGet, "/api/me", api.token("admin"), nil)
	require.True(t, env.Success, env.Error)
	var me struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	env.decode(t, &me)
	assert.Equal(t, "admin-id", me.ID)
	assert.Equal(t, "admin", me.Role)
}

// =========================================================================
// CARD FEATURES
// =========================================================================

func TestCards_Lifecycle(t *testing.T) {
	api := newTestAPI(t)
	alice := api.token("alice")

	empty := api.do(http.MethodGet, "/api/card-features", "", nil)
	require.True(t, empty.Success)
	assert.JSONEq(t, `[]`, string(empty.Data))
	assert.Equal(t, 0, *empty.Count)

	assert.Equal(t, http.StatusUnauthorized,
		api.do(http.MethodPost, "/api/card-features", "", cardBody("Goroutines")).StatusCode)

	created := api.do(http.MethodPost, "/api/card-features", alice, cardBody("Goroutines"))
	require.Equal(t, http.StatusCreated, created.StatusCode, created.Error)
	var card cardJSON
	created.decode(t, &card)
	assert.NotEmpty(t, card.ID)
	assert.Equal(t, "alice-id", card.UserID)
	assert.Equal(t, []string{"backend", "concurrency"}, card.Tags)

	got := api.do(http.MethodGet, "/api/card-features/"+card.ID, "", nil)
	require.True(t, got.Success)

	updated := api.do(http.MethodPut, "/api/card-features/"+card.ID, alice, map[string]any{"title": "Goroutines 101"})
	require.True(t, updated.Success, updated.Error)
	var after cardJSON
	updated.decode(t, &after)
	assert.Equal(t, "Goroutines 101", after.Title)
	assert.Equal(t, card.Tags, after.Tags)

	search := api.do(http.MethodGet, "/api/card-features/search?q=101", "", nil)
	require.True(t, search.Success)
	assert.Equal(t, 1, *search.Count)

	byTech := api.do(http.MethodGet, "/api/card-features/tech/Go", "", nil)
	assert.Equal(t, 1, *byTech.Count)
	assert.Equal(t, 0, *api.do(http.MethodGet, "/api/card-features/tech/all", "", nil).Count)

	stats := api.do(http.MethodGet, "/api/card-features/stats", "", nil)
	var st struct {
		Total  int            `json:"total"`
		ByTech map[string]int `json:"byTech"`
	}
	stats.decode(t, &st)
	assert.Equal(t, 1, st.Total)
	assert.Equal(t, map[string]int{"Go": 1}, st.ByTech)

	deleted := api.do(http.MethodDelete, "/api/card-features/"+card.ID, alice, nil)
	require.True(t, deleted.Success)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/card-features/"+card.ID, "", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/card-features/"+card.ID, alice, nil).StatusCode)
}

func TestCards_CreateRejects(t *testing.T) {
	api := newTestAPI(t)
	alice := api.token("alice")

	t.Run("malformed json", func(t *testing.T) {
		api := api.with(t)
		env := api.do(http.MethodPost, "/api/card-features", alice, `{"title": `)
		assert.Equal(t, http.StatusBadRequest, env.StatusCode)
		assert.False(t, env.Success)
	})

	t.Run("every problem reported at once", func(t *testing.T) {
		api := api.with(t)
		body := cardBody("x")
		delete(body, "title")
		body["card_type"] = "poster"
		body["screens"] = []any{map[string]any{"name": "Main", "blocks": []any{map[string]any{"type": "code"}}}}

		env := api.do(http.MethodPost, "/api/card-features", alice, body)

		assert.Equal(t, http.StatusBadRequest, env.StatusCode)
		var fields []string
		for _, fe := range env.Errors {
			fields = append(fields, fe.Field)
		}
		assert.Contains(t, fields, "title")
		assert.Contains(t, fields, "card_type")
		assert.Contains(t, fields, "screens[0].blocks[0].content")
	})

	t.Run("empty update", func(t *testing.T) {
		api := api.with(t)
		card := api.do(http.MethodPost, "/api/card-features", alice, cardBody("Chan"))
		var c cardJSON
		card.decode(t, &c)
		env := api.do(http.MethodPut, "/api/card-features/"+c.ID, alice, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, env.StatusCode)
	})
}

func TestCards_PrivateHiddenFromOthers(t *testing.T) {
	api := newTestAPI(t)
	alice, bob := api.token("alice"), api.token("bob")

	body := cardBody("Secret")
	body["visibility"] = "private"
	var c cardJSON
	api.do(http.MethodPost, "/api/card-features", alice, body).decode(t, &c)

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/card-features/"+c.ID, alice, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/card-features/"+c.ID, bob, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/card-features/"+c.ID, "", nil).StatusCode)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/card-features/"+c.ID, api.token("admin"), nil).StatusCode)

	assert.Equal(t, 1, *api.do(http.MethodGet, "/api/card-features", alice, nil).Count)
	assert.Equal(t, 0, *api.do(http.MethodGet, "/api/card-features", bob, nil).Count)
}

func TestCards_OnlyOwnerMayChange(t *testing.T) {
	api := newTestAPI(t)
	alice, mallory := api.token("alice"), api.token("mallory")

	private := cardBody("Secret")
	private["visibility"] = "private"
	var secret, open cardJSON
	api.do(http.MethodPost, "/api/card-features", alice, private).decode(t, &secret)
	api.do(http.MethodPost, "/api/card-features", alice, cardBody("Open")).decode(t, &open)

	secretPath := "/api/card-features/" + secret.ID
	for _, tc := range []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPut, secretPath, map[string]any{"title": "taken"}},
		{http.MethodDelete, secretPath, nil},
		{http.MethodPut, secretPath + "/reviews", map[string]any{"rating": 1}},
		{http.MethodGet, secretPath + "/reviews", nil},
		{http.MethodPost, "/api/saved-items", map[string]any{"item_type": "card", "item_id": secret.ID}},
	} {
		env := api.do(tc.method, tc.path, mallory, tc.body)
		assert.Equal(t, http.StatusNotFound, env.StatusCode, "%s %s", tc.method, tc.path)
	}

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPut, "/api/card-features/"+open.ID, mallory,
		map[string]any{"title": "taken"}).StatusCode)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, "/api/card-features/"+open.ID, mallory, nil).StatusCode)

	var got cardJSON
	api.do(http.MethodGet, secretPath, alice, nil).decode(t, &got)
	assert.Equal(t, "Secret", got.Title)
	api.do(http.MethodGet, "/api/card-features/"+open.ID, "", nil).decode(t, &got)
	assert.Equal(t, "Open", got.Title)

	updated := api.do(http.MethodPut, secretPath, api.token("admin"), map[string]any{"title": "Moderated"})
	assert.True(t, updated.Success, updated.Error)
}

func TestCards_NullEnumRejected(t *testing.T) {
	api := newTestAPI(t)
	alice := api.token("alice")
	body := cardBody("Enums")
	body["visibility"] = "private"
	var c cardJSON
	api.do(http.MethodPost, "/api/card-features", alice, body).decode(t, &c)

	env := api.do(http.MethodPut, "/api/card-features/"+c.ID, alice,
		`{"card_type":null,"content_type":null,"visibility":null}`)
	assert.Equal(t, http.StatusBadRequest, env.StatusCode)

	var got struct {
		CardType    string `json:"card_type"`
		ContentType string `json:"content_type"`
		Visibility  string `json:"visibility"`
	}
	api.do(http.MethodGet, "/api/card-features/"+c.ID, alice, nil).decode(t, &got)
	assert.Equal(t, "code", got.CardType)
	assert.Equal(t, "code", got.ContentType)
	assert.Equal(t, "private", got.Visibility)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/card-features/"+c.ID, "", nil).StatusCode)
}

func TestCards_BulkAndPagination(t *testing.T) {
	api := newTestAPI(t)
	admin := api.token("admin")

	docs := make([]any, 25)
	for i := range docs {
		docs[i] = cardBody(fmt.Sprintf("Card %02d", i))
	}

	assert.Equal(t, http.StatusForbidden,
		api.do(http.MethodPost, "/api/card-features/bulk", api.token("alice"), docs).StatusCode)
	assert.Equal(t, http.StatusUnauthorized,
		api.do(http.MethodPost, "/api/card-features/bulk", "", docs).StatusCode)

	created := api.do(http.MethodPost, "/api/card-features/bulk", admin, map[string]any{"cards": docs})
	require.Equal(t, http.StatusCreated, created.StatusCode, created.Error)
	assert.Equal(t, 25, *created.Count)
	var cards []cardJSON
	created.decode(t, &cards)

	page := api.do(http.MethodGet, "/api/card-features?page=2&limit=10&sortBy=title&sortOrder=asc", "", nil)
	require.True(t, page.Success, page.Error)
	var got []cardJSON
	page.decode(t, &got)
	require.Len(t, got, 10)
	assert.Equal(t, "Card 10", got[0].Title)
	assert.Equal(t, "Card 19", got[9].Title)
	assert.Equal(t, 25, *page.Count, "count is the total, not the page size")

	all := api.do(http.MethodGet, "/api/card-features?language=all", "", nil)
	assert.Equal(t, 25, *all.Count)

	assert.Equal(t, http.StatusBadRequest,
		api.do(http.MethodGet, "/api/card-features?page=two", "", nil).StatusCode)

	ids := []string{cards[0].ID, cards[1].ID}
	removed := api.do(http.MethodDelete, "/api/card-features/bulk", admin, map[string]any{"ids": ids})
	require.True(t, removed.Success, removed.Error)
	assert.Equal(t, 23, *api.do(http.MethodGet, "/api/card-features", "", nil).Count)
}

// =========================================================================
// SAVED ITEMS & REVIEWS
// =========================================================================

func TestSavedItems(t *testing.T) {
	api := newTestAPI(t)
	alice := api.token("alice")
	var c cardJSON
	api.do(http.MethodPost, "/api/card-features", alice, cardBody("Select")).decode(t, &c)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/saved-items", "", nil).StatusCode)

	save := map[string]any{"item_type": "card", "item_id": c.ID}
	assert.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/saved-items", alice, save).StatusCode)
	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, "/api/saved-items", alice, save).StatusCode)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/api/saved-items", alice,
		map[string]any{"item_type": "card", "item_id": "missing"}).StatusCode)

	var status struct {
		Saved bool `json:"saved"`
	}
	api.do(http.MethodGet, "/api/saved-items/card/"+c.ID, alice, nil).decode(t, &status)
	assert.True(t, status.Saved)

	assert.Equal(t, 1, *api.do(http.MethodGet, "/api/saved-items?type=card", alice, nil).Count)
	assert.Equal(t, 0, *api.do(http.MethodGet, "/api/saved-items?type=video", alice, nil).Count)

	assert.True(t, api.do(http.MethodDelete, "/api/saved-items/card/"+c.ID, alice, nil).Success)
	api.do(http.MethodGet, "/api/saved-items/card/"+c.ID, alice, nil).decode(t, &status)
	assert.False(t, status.Saved)

	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/saved-items", alice, save).StatusCode)
	require.True(t, api.do(http.MethodDelete, "/api/card-features/"+c.ID, alice, nil).Success)
	assert.Equal(t, 0, *api.do(http.MethodGet, "/api/saved-items", alice, nil).Count, "deleting a card drops its bookmarks")
}

func TestReviews(t *testing.T) {
	api := newTestAPI(t)
	alice, bob := api.token("alice"), api.token("bob")
	var c cardJSON
	api.do(http.MethodPost, "/api/card-features", alice, cardBody("Mutex")).decode(t, &c)
	path := "/api/card-features/" + c.ID + "/reviews"

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPut, path, "", map[string]any{"rating": 5}).StatusCode)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPut, path, alice, map[string]any{"comment": "no rating"}).StatusCode)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPut, path, alice, map[string]any{"rating": 9}).StatusCode)

	require.True(t, api.do(http.MethodPut, path, alice, map[string]any{"rating": 3}).Success)
	require.True(t, api.do(http.MethodPut, path, alice, map[string]any{"rating": 4}).Success)
	require.True(t, api.do(http.MethodPut, path, bob, map[string]any{"rating": 5, "comment": "clear"}).Success)

	assert.Equal(t, 2, *api.do(http.MethodGet, path, "", nil).Count)

	var sum struct {
		Count   int     `json:"count"`
		Average float64 `json:"average"`
	}
	api.do(http.MethodGet, path+"/summary", "", nil).decode(t, &sum)
	assert.Equal(t, 2, sum.Count)
	assert.InDelta(t, 4.5, sum.Average, 1e-9)

	assert.True(t, api.do(http.MethodDelete, path, bob, nil).Success)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, path, bob, nil).StatusCode)
}

// =========================================================================
// CONTENTS
// =========================================================================

func TestContents(t *testing.T) {
	api := newTestAPI(t)
	admin := api.token("admin")
	video := map[string]any{
		"title":        "Go Tour",
		"content_type": "video",
		"youtube_url":  "https://youtu.be/dQw4w9WgXcQ",
	}

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/contents", api.token("alice"), video).StatusCode)

	created := api.do(http.MethodPost, "/api/contents", admin, video)
	require.Equal(t, http.StatusCreated, created.StatusCode, created.Error)
	var content struct {
		ID      string `json:"id"`
		Slug    string `json:"slug"`
		VideoID string `json:"video_id"`
	}
	created.decode(t, &content)
	assert.Equal(t, "go-tour", content.Slug)
	assert.Equal(t, "dQw4w9WgXcQ", content.VideoID)

	assert.True(t, api.do(http.MethodGet, "/api/contents/slug/go-tour", "", nil).Success)
	assert.Equal(t, 1, *api.do(http.MethodGet, "/api/contents?type=video", "", nil).Count)
	assert.Equal(t, 0, *api.do(http.MethodGet, "/api/contents?type=document", "", nil).Count)

	doc := map[string]any{"title": "Cheat sheet", "content_type": "document", "file_path": "cheatsheet.pdf"}
	env := api.do(http.MethodPost, "/api/contents", admin, doc)
	assert.Equal(t, http.StatusBadRequest, env.StatusCode, "file_path needs a storage bucket")

	saved := api.do(http.MethodPost, "/api/saved-items", admin, map[string]any{"item_type": "video", "item_id": content.ID})
	assert.Equal(t, http.StatusCreated, saved.StatusCode, saved.Error)

	updated := api.do(http.MethodPut, "/api/contents/"+content.ID, admin, map[string]any{"description": "A tour"})
	require.True(t, updated.Success, updated.Error)

	assert.True(t, api.do(http.MethodDelete, "/api/contents/"+content.ID, admin, nil).Success)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/contents/"+content.ID, "", nil).StatusCode)
}
