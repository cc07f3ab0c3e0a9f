package services

import "github.com/pinsync/client/internal/models"

// VisiblePins filters the feed down to the pins the viewer may see,
// preserving feed order. A pin is visible when the viewer owns it, when it
// belongs to the viewer's current group (membership is retroactive: joining a
// group reveals its whole history, not just pins created after joining), or
// when its owner is on the viewer's friend list.
//
// This is a pure predicate over an already-fetched feed; it performs no I/O
// and must be re-applied whenever the feed, the viewer's group, or the
// friend list changes.
func VisiblePins(pins []models.Pin, viewer models.Viewer) []models.Pin {
	visible := make([]models.Pin, 0, len(pins))
	for _, p := range pins {
		if pinVisibleTo(p, viewer) {
			visible = append(visible, p)
		}
	}
	return visible
}

func pinVisibleTo(p models.Pin, viewer models.Viewer) bool {
	if p.UserID == viewer.ID {
		return true
	}
	if viewer.GroupID != "" && p.GroupID == viewer.GroupID {
		return true
	}
	return viewer.IsFriend(p.UserID)
}
