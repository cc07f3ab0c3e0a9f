package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pinsync/client/internal/models"
	"github.com/pinsync/client/internal/services"
)

// GroupHandler exposes group membership reads.
type GroupHandler struct {
	groups *services.GroupService
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(groups *services.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// GetMembers lists one group's members, ordered by join time.
func (h *GroupHandler) GetMembers(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")

	members, err := h.groups.Members(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, models.ErrEmptyGroupID) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusBadGateway, "Failed to fetch group members.")
		return
	}

	respondJSON(w, http.StatusOK, models.MemberListResponse{
		GroupID: groupID,
		Members: members,
	})
}
