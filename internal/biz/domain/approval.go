package domain

import (
	"fmt"
	"time"
)

// ActionType is the operation a human has approved for execution.
type ActionType string

const (
	ActionSendEmail           ActionType = "send_email"
	ActionDraftEmail          ActionType = "draft_email"
	ActionPostUpdate          ActionType = "post_update"
	ActionManualReplyChat     ActionType = "manual_reply_chat"
	ActionManualReplyWhatsApp ActionType = "manual_reply_whatsapp"
)

// ApprovalRecord is an action record promoted out of the approved directory,
// carrying the parameters needed to execute it.
type ApprovalRecord struct {
	Action     ActionType
	To         string
	CC         string
	Subject    string
	ThreadID   string
	Channel    string
	Contact    string
	ExpiresRaw string
	ApprovedBy string
	Body       string
}

// ApprovalFromHeader builds an ApprovalRecord from parsed document header
// fields and the document body.
func ApprovalFromHeader(fields map[string]string, body string) *ApprovalRecord {
	approvedBy := fields["approved_by"]
	if approvedBy == "" {
		approvedBy = "human"
	}
	action := ActionType(fields["action"])
	// Older records name the chat reply after the platform.
	if action == "manual_reply_discord" {
		action = ActionManualReplyChat
	}
	expires := fields["expires"]
	if expires == "" {
		expires = fields["expires_at"]
	}
	return &ApprovalRecord{
		Action:     action,
		To:         fields["to"],
		CC:         fields["cc"],
		Subject:    fields["subject"],
		ThreadID:   fields["thread_id"],
		Channel:    fields["channel"],
		Contact:    fields["contact"],
		ExpiresRaw: expires,
		ApprovedBy: approvedBy,
		Body:       body,
	}
}

// Expired reports whether the approval's expires field is strictly in the
// past at the given instant. A missing field never expires. A field that
// fails to parse is treated as non-expiring and the parse error is returned
// so the caller can log it.
func (a *ApprovalRecord) Expired(now time.Time) (bool, error) {
	if a.ExpiresRaw == "" {
		return false, nil
	}
	t, err := ParseTimestamp(a.ExpiresRaw)
	if err != nil {
		return false, err
	}
	return now.UTC().After(t), nil
}

// timestampLayouts are the formats a human is likely to type into the
// expires field. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a header timestamp, accepting RFC 3339 and the
// common timezone-less variants. Naive timestamps are interpreted as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
