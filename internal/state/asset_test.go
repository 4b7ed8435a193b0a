package state

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestAssetTransitionValidity(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{AssetAtHub, AssetLoaded, true},
		{AssetAtHub, AssetRebranding, true},
		{AssetAtHub, AssetInTransit, false},
		{AssetLoaded, AssetInTransit, true},
		{AssetInTransit, AssetOnSite, true},
		{AssetOnSite, AssetReturning, true},
		{AssetOnSite, AssetInTransit, true},
		{AssetOnSite, AssetRebranding, false},
		{AssetReturning, AssetAtHub, true},
		{AssetRebranding, AssetAtHub, true},
		{AssetRebranding, AssetLoaded, false},
	}
	for _, c := range cases {
		if got := IsValidAssetTransition(c.from, c.to); got != c.ok {
			t.Fatalf("%s -> %s: expected %v, got %v", c.from, c.to, c.ok, got)
		}
	}
}

func TestDeriveAssetUpdateOnSite(t *testing.T) {
	u := DeriveAssetUpdate(TransitionContext{
		AssetID: "a1", From: AssetInTransit, To: AssetOnSite,
		TripID: "t1", VenueID: "v1", VenueName: "Civic Arena",
	}, testNow)
	if u.Status != AssetOnSite {
		t.Fatalf("status: %s", u.Status)
	}
	if u.CurrentVenueID == nil || *u.CurrentVenueID != "v1" {
		t.Fatalf("expected venue set, got %v", u.CurrentVenueID)
	}
	if u.CurrentTripID != nil || u.CurrentHubID != nil {
		t.Fatalf("expected trip and hub cleared, got %v %v", u.CurrentTripID, u.CurrentHubID)
	}
	if u.UpdatedAt != "2025-06-01T12:00:00Z" {
		t.Fatalf("updated_at: %s", u.UpdatedAt)
	}
}

func TestDeriveAssetUpdateAtHub(t *testing.T) {
	u := DeriveAssetUpdate(TransitionContext{
		AssetID: "a1", From: AssetReturning, To: AssetAtHub,
		HubID: "h1", HubName: "North Hub",
	}, testNow)
	if u.CurrentTripID != nil || u.CurrentVenueID != nil {
		t.Fatalf("expected trip and venue cleared, got %v %v", u.CurrentTripID, u.CurrentVenueID)
	}
	if u.CurrentHubID == nil || *u.CurrentHubID != "h1" {
		t.Fatalf("expected hub set, got %v", u.CurrentHubID)
	}
}

func TestDeriveAssetUpdateLoaded(t *testing.T) {
	u := DeriveAssetUpdate(TransitionContext{
		AssetID: "a1", From: AssetAtHub, To: AssetLoaded,
		TripID: "t1", HubID: "h1",
	}, testNow)
	if u.CurrentTripID == nil || *u.CurrentTripID != "t1" {
		t.Fatalf("expected trip set, got %v", u.CurrentTripID)
	}
	if u.CurrentVenueID != nil || u.CurrentHubID != nil {
		t.Fatalf("expected venue and hub cleared")
	}
}

func TestDeriveAssetUpdateRebranding(t *testing.T) {
	u := DeriveAssetUpdate(TransitionContext{
		AssetID: "a1", From: AssetAtHub, To: AssetRebranding,
		HubID: "h1",
	}, testNow)
	if u.CurrentHubID == nil || *u.CurrentHubID != "h1" {
		t.Fatalf("expected hub set")
	}
	if u.CurrentTripID != nil || u.CurrentVenueID != nil {
		t.Fatalf("expected trip and venue cleared")
	}
}

func TestDeriveMovementHubToTransit(t *testing.T) {
	m := DeriveMovement(TransitionContext{
		AssetID: "a1", From: AssetAtHub, To: AssetLoaded,
		TripID: "t1", HubID: "h1", HubName: "North Hub", Note: "load-out",
	}, testNow)
	if m.FromLocationType != LocationHub || m.ToLocationType != LocationInTransit {
		t.Fatalf("classification: %s -> %s", m.FromLocationType, m.ToLocationType)
	}
	if m.FromLocationID == nil || *m.FromLocationID != "h1" || m.FromLocationName != "North Hub" {
		t.Fatalf("from endpoint: %v %s", m.FromLocationID, m.FromLocationName)
	}
	if m.ToLocationID != nil {
		t.Fatalf("in_transit endpoint should carry no location id")
	}
	if m.TripID == nil || *m.TripID != "t1" {
		t.Fatalf("trip: %v", m.TripID)
	}
	if m.Notes != "load-out" {
		t.Fatalf("notes: %s", m.Notes)
	}
}

func TestDeriveMovementVenueTransfer(t *testing.T) {
	// on_site -> in_transit is the venue-to-venue transfer edge: the asset
	// leaves its current venue and the destination is only known to the trip.
	m := DeriveMovement(TransitionContext{
		AssetID: "a1", From: AssetOnSite, To: AssetInTransit,
		TripID: "t1", VenueID: "v1", VenueName: "Civic Arena",
	}, testNow)
	if m.FromLocationType != LocationVenue || m.ToLocationType != LocationInTransit {
		t.Fatalf("classification: %s -> %s", m.FromLocationType, m.ToLocationType)
	}
	if m.FromLocationID == nil || *m.FromLocationID != "v1" {
		t.Fatalf("from venue: %v", m.FromLocationID)
	}
}

func TestDeriveMovementRebrandingIsHub(t *testing.T) {
	m := DeriveMovement(TransitionContext{
		AssetID: "a1", From: AssetRebranding, To: AssetAtHub,
		HubID: "h1", HubName: "North Hub",
	}, testNow)
	if m.FromLocationType != LocationHub || m.ToLocationType != LocationHub {
		t.Fatalf("classification: %s -> %s", m.FromLocationType, m.ToLocationType)
	}
}
