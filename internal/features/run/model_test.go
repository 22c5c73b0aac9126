package run

import (
	"testing"
	"time"
)

func outcome(memberID string, success bool, errMsg string) RecipientOutcome {
	return RecipientOutcome{
		MemberID: memberID,
		Success:  success,
		Error:    errMsg,
		At:       time.Now(),
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name         string
		outcomes     []RecipientOutcome
		wantStatus   RunStatus
		wantSuccess  int
		wantFailures int
		wantErrMsg   string
	}{
		{
			name:       "no recipients is success",
			outcomes:   nil,
			wantStatus: RunSuccess,
		},
		{
			name: "all delivered",
			outcomes: []RecipientOutcome{
				outcome("m1", true, ""),
				outcome("m2", true, ""),
			},
			wantStatus:  RunSuccess,
			wantSuccess: 2,
		},
		{
			name: "all failed",
			outcomes: []RecipientOutcome{
				outcome("m1", false, "mailbox full"),
				outcome("m2", false, "bounced"),
			},
			wantStatus:   RunFailed,
			wantFailures: 2,
			wantErrMsg:   "mailbox full",
		},
		{
			name: "mixed outcomes",
			outcomes: []RecipientOutcome{
				outcome("m1", true, ""),
				outcome("m2", false, "bounced"),
				outcome("m3", true, ""),
			},
			wantStatus:   RunPartial,
			wantSuccess:  2,
			wantFailures: 1,
			wantErrMsg:   "bounced",
		},
		{
			name: "single failure",
			outcomes: []RecipientOutcome{
				outcome("m1", false, "no address"),
			},
			wantStatus:   RunFailed,
			wantFailures: 1,
			wantErrMsg:   "no address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &AutomationRun{Status: RunPending, Outcomes: tt.outcomes}
			Summarize(r)

			if r.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", r.Status, tt.wantStatus)
			}
			if r.RecipientCount != len(tt.outcomes) {
				t.Errorf("recipient count = %d, want %d", r.RecipientCount, len(tt.outcomes))
			}
			if r.SuccessCount != tt.wantSuccess {
				t.Errorf("success count = %d, want %d", r.SuccessCount, tt.wantSuccess)
			}
			if r.FailureCount != tt.wantFailures {
				t.Errorf("failure count = %d, want %d", r.FailureCount, tt.wantFailures)
			}
			if r.ErrorMessage != tt.wantErrMsg {
				t.Errorf("error message = %q, want %q", r.ErrorMessage, tt.wantErrMsg)
			}
		})
	}
}
