package models

import (
	"errors"
	"strings"
	"testing"
)

func TestApplicationStatusIsTerminal(t *testing.T) {
	cases := []struct {
		status ApplicationStatus
		want   bool
	}{
		{ApplicationPending, false},
		{ApplicationUnderReview, false},
		{ApplicationAccepted, true},
		{ApplicationRejected, true},
		{ApplicationWithdrawn, true},
	}
	for _, c := range cases {
		if got := c.status.IsTerminal(); got != c.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestApplicationStatusIsWithdrawable(t *testing.T) {
	cases := []struct {
		status ApplicationStatus
		want   bool
	}{
		{ApplicationPending, true},
		{ApplicationUnderReview, true},
		{ApplicationAccepted, false},
		{ApplicationRejected, false},
		{ApplicationWithdrawn, false},
	}
	for _, c := range cases {
		if got := c.status.IsWithdrawable(); got != c.want {
			t.Errorf("%s.IsWithdrawable() = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestLiveApplicationStatuses(t *testing.T) {
	live := map[ApplicationStatus]bool{}
	for _, s := range LiveApplicationStatuses {
		live[s] = true
	}
	if !live[ApplicationPending] || !live[ApplicationUnderReview] || !live[ApplicationAccepted] {
		t.Errorf("live statuses = %v, missing pending/under_review/accepted", LiveApplicationStatuses)
	}
	if live[ApplicationRejected] || live[ApplicationWithdrawn] {
		t.Errorf("rejected and withdrawn must not count as live, got %v", LiveApplicationStatuses)
	}
}

func TestApplyPayloadValidate(t *testing.T) {
	cases := []struct {
		name    string
		payload ApplyPayload
		wantErr string
	}{
		{"empty payload is fine", ApplyPayload{}, ""},
		{"message within limit", ApplyPayload{ApplicationMessage: strings.Repeat("a", 500)}, ""},
		{"message too long", ApplyPayload{ApplicationMessage: strings.Repeat("a", 501)}, "application_message must be at most 500 characters"},
		{"rate in range", ApplyPayload{ProposedRate: 42}, ""},
		{"rate too low", ApplyPayload{ProposedRate: 10}, "proposed_rate must be between 15 and 100"},
		{"rate too high", ApplyPayload{ProposedRate: 150}, "proposed_rate must be between 15 and 100"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.payload.Validate()
			if c.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, msg := range ve.Errors {
				if msg == c.wantErr {
					found = true
				}
			}
			if !found {
				t.Errorf("errors %v do not include %q", ve.Errors, c.wantErr)
			}
		})
	}
}
