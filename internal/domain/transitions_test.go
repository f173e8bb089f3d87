package domain

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := []struct {
		from, to Status
	}{
		{StatusPending, StatusInProgress},
		{StatusInProgress, StatusAwaitingReview},
		{StatusAwaitingReview, StatusInReview},
		{StatusInReview, StatusAwaitingFinalReview},
		{StatusInReview, StatusRejected},
		{StatusAwaitingFinalReview, StatusFinalReview},
		{StatusFinalReview, StatusCompleted},
		{StatusFinalReview, StatusRejected},
		{StatusRejected, StatusInProgress},
		{StatusRejected, StatusAwaitingReview},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct {
		from, to Status
	}{
		{StatusPending, StatusAwaitingReview},
		{StatusPending, StatusCompleted},
		{StatusInProgress, StatusInReview},
		{StatusAwaitingReview, StatusCompleted},
		{StatusInReview, StatusCompleted},
		{StatusCompleted, StatusInProgress},
		{StatusCompleted, StatusRejected},
		{StatusRejected, StatusCompleted},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be denied", tc.from, tc.to)
		}
	}
}

func TestCompletedIsTerminal(t *testing.T) {
	if !StatusCompleted.Terminal() {
		t.Fatal("completed should be terminal")
	}
	if len(NextStatuses(StatusCompleted)) != 0 {
		t.Fatal("completed should have no outgoing edges")
	}
	for _, s := range []Status{
		StatusPending, StatusInProgress, StatusAwaitingReview, StatusInReview,
		StatusAwaitingFinalReview, StatusFinalReview, StatusRejected,
	} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{
		StatusPending, StatusInProgress, StatusAwaitingReview, StatusInReview,
		StatusAwaitingFinalReview, StatusFinalReview, StatusRejected, StatusCompleted,
	} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("archived").Valid() {
		t.Error("unknown status should be invalid")
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range Roles() {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if Role("supervisor").Valid() {
		t.Error("unknown role should be invalid")
	}
}
