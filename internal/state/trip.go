// Package state holds the trip and asset lifecycle state machines as
// declarative transition tables with pure query functions. Nothing in
// this package touches the database; persistence of derived payloads is
// the caller's job.
package state

const (
	TripDraft       = "draft"
	TripRecommended = "recommended"
	TripConfirmed   = "confirmed"
	TripInTransit   = "in_transit"
	TripOnSite      = "on_site"
	TripReturning   = "returning"
	TripCompleted   = "completed"
	TripCancelled   = "cancelled"
)

// TripAction is one allowed next step for a trip, paired with UI copy.
// Order matters: callers render the primary action before the destructive one.
type TripAction struct {
	To          string `json:"to"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var tripTransitions = map[string][]TripAction{
	TripDraft: {
		{To: TripConfirmed, Label: "Confirm", Description: "Lock the trip into the gameplan"},
		{To: TripCancelled, Label: "Cancel", Description: "Drop the trip from the week"},
	},
	TripRecommended: {
		{To: TripConfirmed, Label: "Confirm", Description: "Accept the recommended trip"},
		{To: TripCancelled, Label: "Cancel", Description: "Reject the recommendation"},
	},
	TripConfirmed: {
		{To: TripInTransit, Label: "Depart", Description: "Vehicle has left the hub"},
		{To: TripCancelled, Label: "Cancel", Description: "Drop the trip from the week"},
	},
	TripInTransit: {
		{To: TripOnSite, Label: "Arrive", Description: "Crew is on site at the venue"},
	},
	TripOnSite: {
		{To: TripReturning, Label: "Head back", Description: "Crew is returning to the hub"},
	},
	TripReturning: {
		{To: TripCompleted, Label: "Complete", Description: "Vehicle and crew are back at the hub"},
	},
	TripCompleted: nil,
	TripCancelled: nil,
}

// ValidTripStatus reports whether s is a known trip status.
func ValidTripStatus(s string) bool {
	_, ok := tripTransitions[s]
	return ok
}

// IsValidTripTransition reports whether from -> to is an edge of the trip graph.
func IsValidTripTransition(from, to string) bool {
	for _, a := range tripTransitions[from] {
		if a.To == to {
			return true
		}
	}
	return false
}

// TripActions returns the allowed next actions for a status in declared order.
// Terminal statuses (completed, cancelled) return nil.
func TripActions(status string) []TripAction {
	actions := tripTransitions[status]
	if len(actions) == 0 {
		return nil
	}
	out := make([]TripAction, len(actions))
	copy(out, actions)
	return out
}
