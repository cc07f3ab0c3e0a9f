package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pinsync/client/internal/models"
	"github.com/pinsync/client/internal/services"
)

// FeedHandler exposes the canonical feed: reading it, refreshing it from the
// remote stores, logging pins, deleting pins, and the viewer-scoped view.
type FeedHandler struct {
	feed *services.FeedService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feed *services.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// GetFeed returns the current canonical feed, newest first.
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	pins := h.feed.Pins()
	respondJSON(w, http.StatusOK, models.FeedResponse{
		Pins:       pins,
		TotalCount: len(pins),
	})
}

// RefreshFeed rebuilds the feed from both stores and returns the result.
// Individual store failures are absorbed; the response always carries
// whatever the merge produced.
func (h *FeedHandler) RefreshFeed(w http.ResponseWriter, r *http.Request) {
	h.feed.Refresh(r.Context())

	pins := h.feed.Pins()
	respondJSON(w, http.StatusOK, models.FeedResponse{
		Pins:       pins,
		TotalCount: len(pins),
	})
}

// AddPin logs a new pin. The response carries the placeholder pin; the
// remote save happens in the background and the feed reconciles the
// placeholder once the store assigns an ID.
func (h *FeedHandler) AddPin(w http.ResponseWriter, r *http.Request) {
	var req models.AddPinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	color := models.DefaultColor
	if req.ColorHex != "" {
		if parsed, ok := models.ParseHex(req.ColorHex); ok {
			color = parsed
		}
	}

	pin, err := models.NewPin(
		req.UserID,
		req.UserName,
		req.GroupID,
		req.Latitude,
		req.Longitude,
		req.Ratings,
		req.Comment,
		req.LocationDescription,
		color,
		req.PhotoURL,
	)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.feed.AddPin(r.Context(), pin); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to accept pin.")
		return
	}

	respondJSON(w, http.StatusAccepted, pin)
}

// DeletePin removes a pin optimistically; if the remote delete fails the pin
// is restored and the failure reported.
func (h *FeedHandler) DeletePin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.feed.DeletePin(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrPinNotFound) {
			respondError(w, http.StatusNotFound, "Pin not found.")
			return
		}
		respondError(w, http.StatusBadGateway, "Remote delete failed; pin restored.")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetVisibleFeed returns the feed filtered to one viewer's perspective.
// Query parameters: viewerId (required), groupId, friendIds (comma-separated).
func (h *FeedHandler) GetVisibleFeed(w http.ResponseWriter, r *http.Request) {
	viewerID := r.URL.Query().Get("viewerId")
	if viewerID == "" {
		respondError(w, http.StatusBadRequest, "viewerId query parameter required.")
		return
	}

	viewer := models.Viewer{
		ID:      viewerID,
		GroupID: r.URL.Query().Get("groupId"),
	}
	if raw := r.URL.Query().Get("friendIds"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				viewer.FriendIDs = append(viewer.FriendIDs, id)
			}
		}
	}

	pins := services.VisiblePins(h.feed.Pins(), viewer)
	respondJSON(w, http.StatusOK, models.FeedResponse{
		Pins:       pins,
		TotalCount: len(pins),
	})
}
