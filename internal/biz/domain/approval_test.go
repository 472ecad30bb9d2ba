package domain

import (
	"testing"
	"time"
)

func TestApprovalExpired(t *testing.T) {
	now := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name        string
		expires     string
		wantExpired bool
		wantErr     bool
	}{
		{"missing field never expires", "", false, false},
		{"strictly past", "2026-01-15T10:29:59Z", true, false},
		{"exactly now is not expired", "2026-01-15T10:30:00Z", false, false},
		{"future", "2026-01-15T10:30:01Z", false, false},
		{"naive timestamp read as utc", "2026-01-15 09:00:00", true, false},
		{"date only", "2026-01-14", true, false},
		{"offset timestamp normalized", "2026-01-15T11:29:00+02:00", true, false},
		{"unparseable treated as non-expiring", "next tuesday", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &ApprovalRecord{ExpiresRaw: tt.expires}
			expired, err := a.Expired(now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if expired != tt.wantExpired {
				t.Errorf("expired = %v, want %v", expired, tt.wantExpired)
			}
		})
	}
}

func TestApprovalFromHeader(t *testing.T) {
	fields := map[string]string{
		"action":    "send_email",
		"to":        "client@example.com",
		"subject":   "Re: invoice",
		"thread_id": "<abc@mail>",
		"expires":   "2026-02-01",
	}
	a := ApprovalFromHeader(fields, "## Draft Reply\n\nHello")

	if a.Action != ActionSendEmail {
		t.Errorf("Action = %q", a.Action)
	}
	if a.To != "client@example.com" || a.Subject != "Re: invoice" || a.ThreadID != "<abc@mail>" {
		t.Errorf("fields not carried: %+v", a)
	}
	if a.ApprovedBy != "human" {
		t.Errorf("ApprovedBy default = %q, want human", a.ApprovedBy)
	}
	if a.Body == "" {
		t.Error("body dropped")
	}
}

func TestApprovalFromHeaderAliases(t *testing.T) {
	a := ApprovalFromHeader(map[string]string{
		"action":     "manual_reply_discord",
		"expires_at": "2026-02-01",
	}, "")

	if a.Action != ActionManualReplyChat {
		t.Errorf("Action = %q, want %q", a.Action, ActionManualReplyChat)
	}
	if a.ExpiresRaw != "2026-02-01" {
		t.Errorf("ExpiresRaw = %q, want the expires_at fallback", a.ExpiresRaw)
	}
}
