package domain

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to TicketStatus
		want     bool
	}{
		{TicketStatusOpen, TicketStatusInProgress, true},
		{TicketStatusInProgress, TicketStatusResolved, true},
		{TicketStatusOpen, TicketStatusResolved, false},
		{TicketStatusInProgress, TicketStatusOpen, false},
		{TicketStatusResolved, TicketStatusOpen, false},
		{TicketStatusResolved, TicketStatusInProgress, false},
		{TicketStatusOpen, TicketStatusOpen, false},
		{TicketStatusResolved, TicketStatusResolved, false},
	}

	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%s) = false", s)
		}
	}
	if ValidStatus("closed") {
		t.Error("ValidStatus(closed) = true, want false")
	}
	if ValidStatus(TicketStatus(ViewedMarker)) {
		t.Error("viewed marker must not be a valid status")
	}
}

func TestPriorityRankOrdering(t *testing.T) {
	if !(PriorityRank(TicketPriorityHigh) < PriorityRank(TicketPriorityMedium)) {
		t.Error("high must rank before medium")
	}
	if !(PriorityRank(TicketPriorityMedium) < PriorityRank(TicketPriorityLow)) {
		t.Error("medium must rank before low")
	}
	if !(PriorityRank(TicketPriorityLow) < PriorityRank("")) {
		t.Error("unknown priorities must rank last")
	}
}

func TestIsStatusEntry(t *testing.T) {
	status := TicketLog{ToValue: string(TicketStatusInProgress)}
	if !status.IsStatusEntry() {
		t.Error("status transition entry not recognised")
	}

	priority := TicketLog{ToValue: PriorityLogValue(TicketPriorityHigh)}
	if priority.IsStatusEntry() {
		t.Error("priority entry misclassified as status entry")
	}

	marker := TicketLog{ToValue: ViewedMarker}
	if marker.IsStatusEntry() {
		t.Error("viewed marker misclassified as status entry")
	}
}

func TestActive(t *testing.T) {
	for _, c := range []struct {
		status TicketStatus
		want   bool
	}{
		{TicketStatusOpen, true},
		{TicketStatusInProgress, true},
		{TicketStatusResolved, false},
	} {
		ticket := Ticket{Status: c.status}
		if got := ticket.Active(); got != c.want {
			t.Errorf("Active() with status %s = %v, want %v", c.status, got, c.want)
		}
	}
}
