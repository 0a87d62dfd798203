package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/tenxdev/internal/model"
	"github.com/sakif/tenxdev/internal/service"
)

// ContentHandler serves /api/contents. Reads are public; writes are admin only.
type ContentHandler struct {
	contents *service.ContentService
	logger   *slog.Logger
}

func NewContentHandler(contents *service.ContentService, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{contents: contents, logger: logger}
}

// HandleList lists contents.
//
// HTTP: GET /api/contents?type=video&search=go&page=1&limit=20
func (h *ContentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	p := service.ContentListParams{
		Type:   r.URL.Query().Get("type"),
		Search: r.URL.Query().Get("search"),
	}
	var err error
	if p.Page, err = queryInt(r, "page"); err != nil {
		writeError(w, err)
		return
	}
	if p.Limit, err = queryInt(r, "limit"); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, h.contents.FindAll(r.Context(), p))
}

// HTTP: GET /api/contents/{id}
func (h *ContentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.contents.FindByID(r.Context(), chi.URLParam(r, "id")))
}

// HTTP: GET /api/contents/slug/{slug}
func (h *ContentHandler) HandleGetBySlug(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.contents.FindBySlug(r.Context(), chi.URLParam(r, "slug")))
}

// HandleCreate creates a video or document.
//
// HTTP: POST /api/contents
// BODY: {"title": "...", "content_type": "video", "youtube_url": "..."}
//
//	or {"title": "...", "content_type": "document", "file_path": "guides/go.pdf"}
func (h *ContentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.ContentInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, h.contents.Create(r.Context(), in))
}

// HandleUpdate applies a partial update; absent fields are left alone.
//
// HTTP: PUT /api/contents/{id}
func (h *ContentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch model.ContentPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, h.contents.Update(r.Context(), chi.URLParam(r, "id"), patch))
}

// HTTP: DELETE /api/contents/{id}
func (h *ContentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.contents.Delete(r.Context(), chi.URLParam(r, "id")))
}
