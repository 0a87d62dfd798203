package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/tenxdev/internal/apperror"
	"github.com/sakif/tenxdev/internal/auth"
	"github.com/sakif/tenxdev/internal/service"
)

// ReviewHandler serves /api/card-features/{id}/reviews.
type ReviewHandler struct {
	reviews *service.ReviewService
	logger  *slog.Logger
}

func NewReviewHandler(reviews *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

// HandleList returns every review of the card.
//
// HTTP: GET /api/card-features/{id}/reviews
func (h *ReviewHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.UserFromContext(r.Context())
	writeResult(w, h.reviews.ListForCard(r.Context(), chi.URLParam(r, "id"), viewer))
}

// HandleSummary returns the average rating and review count.
//
// HTTP: GET /api/card-features/{id}/reviews/summary
func (h *ReviewHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.UserFromContext(r.Context())
	writeResult(w, h.reviews.Summary(r.Context(), chi.URLParam(r, "id"), viewer))
}

// HandleUpsert rates the card as the caller.
//
// HTTP: PUT /api/card-features/{id}/reviews
// BODY: {"rating": 4, "comment": "clear and short"}
func (h *ReviewHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rating  *int   `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Rating == nil {
		writeError(w, apperror.ValidationFailed("rating", "rating is required"))
		return
	}
	user, _ := auth.UserFromContext(r.Context())
	writeResult(w, h.reviews.Upsert(r.Context(), chi.URLParam(r, "id"), user, *req.Rating, req.Comment))
}

// HandleDelete removes the caller's review.
//
// HTTP: DELETE /api/card-features/{id}/reviews
func (h *ReviewHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	writeResult(w, h.reviews.Delete(r.Context(), chi.URLParam(r, "id"), userID))
}
