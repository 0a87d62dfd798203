package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/tenxdev/internal/apperror"
	"github.com/sakif/tenxdev/internal/auth"
	"github.com/sakif/tenxdev/internal/repository"
	"github.com/sakif/tenxdev/internal/service"
	"github.com/sakif/tenxdev/internal/validate"
)

// CardHandler serves /api/card-features.
type CardHandler struct {
	cards  *service.CardService
	logger *slog.Logger
}

func NewCardHandler(cards *service.CardService, logger *slog.Logger) *CardHandler {
	return &CardHandler{cards: cards, logger: logger}
}

// listParams reads the list query parameters shared by list, search and tech.
//
//	?tech=go&language=all&content_type=code&card_type=code&search=chan
//	&sortBy=title&sortOrder=asc&page=2&limit=10
func listParams(r *http.Request) (repository.CardListParams, error) {
	q := r.URL.Query()
	p := repository.CardListParams{
		Tech:        q.Get("tech"),
		Language:    q.Get("language"),
		ContentType: q.Get("content_type"),
		CardType:    q.Get("card_type"),
		Visibility:  q.Get("visibility"),
		Search:      q.Get("search"),
		SortBy:      q.Get("sortBy"),
		SortOrder:   q.Get("sortOrder"),
	}
	var err error
	if p.Page, err = queryInt(r, "page"); err != nil {
		return p, err
	}
	if p.Limit, err = queryInt(r, "limit"); err != nil {
		return p, err
	}
	return p, nil
}

// HandleList lists cards visible to the caller.
//
// HTTP: GET /api/card-features
func (h *CardHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	viewer, _ := auth.UserFromContext(r.Context())
	writeResult(w, h.cards.FindAll(r.Context(), p, viewer))
}

// HandleSearch runs a free-text search.
//
// HTTP: GET /api/card-features/search?q=channels
func (h *CardHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	viewer, _ := auth.UserFromContext(r.Context())
	writeResult(w, h.cards.Search(r.Context(), r.URL.Query().Get("q"), p, viewer))
}

// HandleByTech lists the cards of one tech.
//
// HTTP: GET /api/card-features/tech/{tech}
func (h *CardHandler) HandleByTech(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	viewer, _ := auth.UserFromContext(r.Context())
	writeResult(w, h.cards.FindByTech(r.Context(), chi.URLParam(r, "tech"), p, viewer))
}

// HandleStats returns the card counters.
//
// HTTP: GET /api/card-features/stats
func (h *CardHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.cards.GetStats(r.Context()))
}

// HandleGet returns one card.
//
// HTTP: GET /api/card-features/{id}
func (h *CardHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.UserFromContext(r.Context())
	writeResult(w, h.cards.FindByID(r.Context(), chi.URLParam(r, "id"), viewer))
}

// HandleCreate creates a card owned by the caller.
//
// HTTP: POST /api/card-features
// The body is passed to the service as a raw document, so every validation
// error comes back in one response with its exact path.
func (h *CardHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	owner, _ := auth.UserFromContext(r.Context())
	writeResult(w, h.cards.Create(r.Context(), doc, owner))
}

// HandleUpdate applies a partial update. Only the owner or an admin may.
//
// HTTP: PUT /api/card-features/{id}
func (h *CardHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	viewer, _ := auth.UserFromContext(r.Context())
	writeResult(w, h.cards.Update(r.Context(), chi.URLParam(r, "id"), doc, viewer))
}

// HandleDelete deletes one card.
//
// HTTP: DELETE /api/card-features/{id}
func (h *CardHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.UserFromContext(r.Context())
	writeResult(w, h.cards.Delete(r.Context(), chi.URLParam(r, "id"), viewer))
}

// HandleBulkCreate creates a batch of cards, all or nothing.
//
// HTTP: POST /api/card-features/bulk
// BODY: [{card}, {card}] or {"cards": [{card}, {card}]}
func (h *CardHandler) HandleBulkCreate(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		writeError(w, err)
		return
	}

	var docs []map[string]any
	if err := unmarshalNumbers(raw, &docs); err != nil {
		var wrapped struct {
			Cards []map[string]any `json:"cards"`
		}
		if err := unmarshalNumbers(raw, &wrapped); err != nil || wrapped.Cards == nil {
			writeError(w, apperror.ValidationFailed("body", "body must be an array of cards or {\"cards\": [...]}"))
			return
		}
		docs = wrapped.Cards
	}

	owner, _ := auth.UserFromContext(r.Context())
	writeResult(w, h.cards.BulkCreate(r.Context(), docs, owner))
}

// HandleBulkDelete deletes a batch of cards, all or nothing.
//
// HTTP: DELETE /api/card-features/bulk
// BODY: {"ids": ["...", "..."]}
func (h *CardHandler) HandleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, h.cards.BulkDelete(r.Context(), req.IDs))
}

// document reads the body as a raw JSON object. It writes the error response
// itself and reports whether the caller should go on.
func (h *CardHandler) document(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	doc, res := validate.DecodeJSON(body)
	if !res.Valid {
		writeError(w, res.Err())
		return nil, false
	}
	return doc, true
}
