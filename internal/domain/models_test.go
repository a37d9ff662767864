package domain

import (
	"testing"
	"time"
)

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusOpen, StatusInProgress, StatusResolved, StatusEscalated} {
		if !ValidStatus(s) {
			t.Fatalf("ValidStatus(%q) = false; want true", s)
		}
	}
	for _, s := range []string{"", "open", "CLOSED", "Open", "IN PROGRESS"} {
		if ValidStatus(s) {
			t.Fatalf("ValidStatus(%q) = true; want false", s)
		}
	}
}

func TestValidUrgency(t *testing.T) {
	for _, u := range []string{UrgencyHigh, UrgencyMedium, UrgencyLow} {
		if !ValidUrgency(u) {
			t.Fatalf("ValidUrgency(%q) = false; want true", u)
		}
	}
	if ValidUrgency("urgent") || ValidUrgency("") {
		t.Fatalf("unexpected urgency accepted")
	}
}

func TestComplaint_EscalationEligible(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	window := 14 * 24 * time.Hour

	cases := []struct {
		name   string
		status string
		age    time.Duration
		want   bool
	}{
		{"open and older than window", StatusOpen, 20 * 24 * time.Hour, true},
		{"in progress and older than window", StatusInProgress, 15 * 24 * time.Hour, true},
		{"escalated stays eligible", StatusEscalated, 30 * 24 * time.Hour, true},
		{"resolved never eligible", StatusResolved, 90 * 24 * time.Hour, false},
		{"open but fresh", StatusOpen, 3 * 24 * time.Hour, false},
		{"exactly at window boundary is not eligible", StatusOpen, window, false},
		{"just past the boundary is eligible", StatusOpen, window + time.Second, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Complaint{Status: tc.status, CreatedAt: now.Add(-tc.age)}
			if got := c.EscalationEligible(now, window); got != tc.want {
				t.Fatalf("EscalationEligible = %v; want %v", got, tc.want)
			}
		})
	}
}
