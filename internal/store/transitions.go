package store

import "dinequeue/internal/models"

// transitionMap lists the statuses each action may start from. Seated and
// cancelled are terminal: no action lists them except "assign", which accepts
// an already-seated ticket so a party that paid without table tracking can
// still be linked to a table afterwards.
var transitionMap = map[string][]string{
	"call_next": {models.StatusWaiting},
	"seat":      {models.StatusWaiting, models.StatusCalled},
	"cancel":    {models.StatusWaiting, models.StatusCalled},
	"assign":    {models.StatusWaiting, models.StatusCalled, models.StatusSeated},
}

// AllowedFrom returns the statuses an action may start from, nil for an
// unknown action.
func AllowedFrom(action string) []string {
	return transitionMap[action]
}

func ValidTransition(action, fromStatus string) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}

// ActionForStatus maps a requested target status to its transition action.
// Only the two client-facing targets exist; seating via table assignment uses
// the "assign" action internally.
func ActionForStatus(newStatus string) (string, bool) {
	switch newStatus {
	case models.StatusSeated:
		return "seat", true
	case models.StatusCancelled:
		return "cancel", true
	default:
		return "", false
	}
}
