package state

import "time"

const (
	AssetAtHub      = "at_hub"
	AssetLoaded     = "loaded"
	AssetInTransit  = "in_transit"
	AssetOnSite     = "on_site"
	AssetReturning  = "returning"
	AssetRebranding = "rebranding"
)

// Location types recorded on movement rows.
const (
	LocationHub       = "hub"
	LocationVenue     = "venue"
	LocationInTransit = "in_transit"
)

var assetTransitions = map[string][]string{
	AssetAtHub:     {AssetLoaded, AssetRebranding},
	AssetLoaded:    {AssetInTransit},
	AssetInTransit: {AssetOnSite},
	// on_site has two outgoing edges: return to hub vs transfer to the next
	// venue. The caller supplies the intended target; we only validate that
	// the requested edge exists.
	AssetOnSite:     {AssetReturning, AssetInTransit},
	AssetReturning:  {AssetAtHub},
	AssetRebranding: {AssetAtHub},
}

// ValidAssetStatus reports whether s is a known asset status.
func ValidAssetStatus(s string) bool {
	_, ok := assetTransitions[s]
	return ok
}

// IsValidAssetTransition reports whether from -> to is an edge of the asset graph.
func IsValidAssetTransition(from, to string) bool {
	for _, next := range assetTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionContext carries everything a single asset transition needs:
// the requested edge plus the ids and display names of whatever the asset
// is moving between. Trip stop order is never consulted here.
type TransitionContext struct {
	AssetID   string
	From      string
	To        string
	TripID    string
	HubID     string
	HubName   string
	VenueID   string
	VenueName string
	Note      string
}

// AssetUpdate is the fully-determined write payload for one transition.
// All three location pointers are authoritative: the caller writes the
// complete triple so mutual exclusivity can never be violated by a
// partial update.
type AssetUpdate struct {
	Status         string
	CurrentTripID  *string
	CurrentHubID   *string
	CurrentVenueID *string
	UpdatedAt      string
}

// MovementRecord is the derived append-only audit entry for one transition.
type MovementRecord struct {
	AssetID          string
	FromLocationType string
	FromLocationID   *string
	FromLocationName string
	ToLocationType   string
	ToLocationID     *string
	ToLocationName   string
	TripID           *string
	MovedAt          string
	Notes            string
}

// DeriveAssetUpdate computes the asset record fields for entering tc.To.
// Location bookkeeping is keyed entirely by the target status:
//
//	loaded, in_transit, returning -> trip set, hub and venue cleared
//	on_site                       -> venue set, trip and hub cleared
//	at_hub, rebranding            -> hub set, trip and venue cleared
//
// At most one pointer is ever non-nil, preserving mutual exclusivity.
func DeriveAssetUpdate(tc TransitionContext, now time.Time) AssetUpdate {
	u := AssetUpdate{
		Status:    tc.To,
		UpdatedAt: now.UTC().Format(time.RFC3339),
	}
	switch tc.To {
	case AssetLoaded, AssetInTransit, AssetReturning:
		u.CurrentTripID = optional(tc.TripID)
	case AssetOnSite:
		u.CurrentVenueID = optional(tc.VenueID)
	case AssetAtHub, AssetRebranding:
		u.CurrentHubID = optional(tc.HubID)
	}
	return u
}

// DeriveMovement classifies both endpoints of the transition and builds the
// audit row. Classification uses the status only: at_hub/rebranding are hub,
// on_site is venue, everything else is in_transit.
func DeriveMovement(tc TransitionContext, now time.Time) MovementRecord {
	m := MovementRecord{
		AssetID: tc.AssetID,
		TripID:  optional(tc.TripID),
		MovedAt: now.UTC().Format(time.RFC3339),
		Notes:   tc.Note,
	}
	m.FromLocationType = classifyLocation(tc.From)
	switch m.FromLocationType {
	case LocationHub:
		m.FromLocationID = optional(tc.HubID)
		m.FromLocationName = tc.HubName
	case LocationVenue:
		m.FromLocationID = optional(tc.VenueID)
		m.FromLocationName = tc.VenueName
	}
	m.ToLocationType = classifyLocation(tc.To)
	switch m.ToLocationType {
	case LocationHub:
		m.ToLocationID = optional(tc.HubID)
		m.ToLocationName = tc.HubName
	case LocationVenue:
		m.ToLocationID = optional(tc.VenueID)
		m.ToLocationName = tc.VenueName
	}
	return m
}

func classifyLocation(status string) string {
	switch status {
	case AssetAtHub, AssetRebranding:
		return LocationHub
	case AssetOnSite:
		return LocationVenue
	default:
		return LocationInTransit
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
