package state

import "testing"

func TestTripActionsDeclaredOrder(t *testing.T) {
	want := map[string][]string{
		TripDraft:       {TripConfirmed, TripCancelled},
		TripRecommended: {TripConfirmed, TripCancelled},
		TripConfirmed:   {TripInTransit, TripCancelled},
		TripInTransit:   {TripOnSite},
		TripOnSite:      {TripReturning},
		TripReturning:   {TripCompleted},
	}
	for status, targets := range want {
		actions := TripActions(status)
		if len(actions) != len(targets) {
			t.Fatalf("%s: expected %d actions, got %d", status, len(targets), len(actions))
		}
		for i, target := range targets {
			if actions[i].To != target {
				t.Fatalf("%s: action %d expected %s, got %s", status, i, target, actions[i].To)
			}
			if actions[i].Label == "" {
				t.Fatalf("%s -> %s: missing label", status, target)
			}
		}
	}
}

func TestTripTerminalStatuses(t *testing.T) {
	for _, status := range []string{TripCompleted, TripCancelled} {
		if actions := TripActions(status); actions != nil {
			t.Fatalf("%s: expected no actions, got %v", status, actions)
		}
	}
}

func TestTripTransitionValidity(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{TripDraft, TripConfirmed, true},
		{TripDraft, TripCancelled, true},
		{TripDraft, TripInTransit, false},
		{TripRecommended, TripConfirmed, true},
		{TripConfirmed, TripInTransit, true},
		{TripConfirmed, TripOnSite, false},
		{TripInTransit, TripOnSite, true},
		{TripOnSite, TripReturning, true},
		{TripOnSite, TripCompleted, false},
		{TripReturning, TripCompleted, true},
		{TripCompleted, TripDraft, false},
		{TripCancelled, TripConfirmed, false},
	}
	for _, c := range cases {
		if got := IsValidTripTransition(c.from, c.to); got != c.ok {
			t.Fatalf("%s -> %s: expected %v, got %v", c.from, c.to, c.ok, got)
		}
	}
}

func TestValidTripStatus(t *testing.T) {
	for _, s := range []string{TripDraft, TripRecommended, TripConfirmed, TripInTransit, TripOnSite, TripReturning, TripCompleted, TripCancelled} {
		if !ValidTripStatus(s) {
			t.Fatalf("expected %s to be valid", s)
		}
	}
	if ValidTripStatus("parked") {
		t.Fatalf("expected unknown status to be invalid")
	}
}
