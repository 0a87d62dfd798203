package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/tenxdev/internal/auth"
	"github.com/sakif/tenxdev/internal/model"
	"github.com/sakif/tenxdev/internal/service"
)

// SavedItemHandler serves /api/saved-items. Every route requires auth.
type SavedItemHandler struct {
	items  *service.SavedItemService
	logger *slog.Logger
}

func NewSavedItemHandler(items *service.SavedItemService, logger *slog.Logger) *SavedItemHandler {
	return &SavedItemHandler{items: items, logger: logger}
}

// HandleList returns the caller's saved items.
//
// HTTP: GET /api/saved-items?type=card|video|all
func (h *SavedItemHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	writeResult(w, h.items.List(r.Context(), userID, r.URL.Query().Get("type")))
}

// HandleSave bookmarks an item.
//
// HTTP: POST /api/saved-items
// BODY: {"item_type": "card", "item_id": "..."}
func (h *SavedItemHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemType model.ItemType `json:"item_type"`
		ItemID   string         `json:"item_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, _ := auth.UserFromContext(r.Context())
	writeResult(w, h.items.Save(r.Context(), user, req.ItemType, req.ItemID))
}

// HandleIsSaved reports whether the caller saved the item.
//
// HTTP: GET /api/saved-items/{type}/{id}
func (h *SavedItemHandler) HandleIsSaved(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	writeResult(w, h.items.IsSaved(r.Context(), userID,
		model.ItemType(chi.URLParam(r, "type")), chi.URLParam(r, "id")))
}

// HandleUnsave removes a bookmark.
//
// HTTP: DELETE /api/saved-items/{type}/{id}
func (h *SavedItemHandler) HandleUnsave(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	writeResult(w, h.items.Unsave(r.Context(), userID,
		model.ItemType(chi.URLParam(r, "type")), chi.URLParam(r, "id")))
}
