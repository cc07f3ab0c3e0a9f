package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pinsync/client/internal/models"
	"github.com/pinsync/client/internal/services"
)

// CommentHandler exposes per-pin comment threads.
type CommentHandler struct {
	comments *services.CommentService
	feed     *services.FeedService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(comments *services.CommentService, feed *services.FeedService) *CommentHandler {
	return &CommentHandler{comments: comments, feed: feed}
}

// GetComments refetches one pin's thread from both stores and returns it,
// oldest first.
func (h *CommentHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	pinID := chi.URLParam(r, "id")

	respondJSON(w, http.StatusOK, models.CommentListResponse{
		PinID:    pinID,
		Comments: h.comments.FetchComments(r.Context(), pinID),
	})
}

// AddComment appends a comment to a pin's thread. The parent pin must be
// present in the feed; its group decides which store filter the comment
// record carries.
func (h *CommentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	pinID := chi.URLParam(r, "id")

	var req models.AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	var parentGroupID string
	found := false
	for _, p := range h.feed.Pins() {
		if p.ID == pinID {
			parentGroupID = p.GroupID
			found = true
			break
		}
	}
	if !found {
		respondError(w, http.StatusNotFound, "Pin not found.")
		return
	}

	comment, err := models.NewComment(pinID, req.UserID, req.UserName, req.Text)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.comments.AddComment(r.Context(), comment, parentGroupID); err != nil {
		respondError(w, http.StatusBadGateway, "Comment could not be saved to either store.")
		return
	}

	respondJSON(w, http.StatusCreated, comment)
}
