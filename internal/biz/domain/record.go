package domain

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

// RecordKind identifies the class of inbound event a record was built from.
type RecordKind string

const (
	KindFileDrop         RecordKind = "file_drop"
	KindEmail            RecordKind = "email"
	KindChatMessage      RecordKind = "chat_message"
	KindSocialMessage    RecordKind = "social_message"
	KindScheduledTrigger RecordKind = "scheduled_trigger"
)

// Priority is the urgency a record is surfaced with.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Status is the lifecycle state of a record. It changes only when the
// document moves between vault directories.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDone     Status = "done"
)

// Field is one channel-specific payload entry. Order is preserved when the
// record is rendered to a document header.
type Field struct {
	Key   string
	Value string
}

// Section is a named free-text block in a record document body.
type Section struct {
	Name string
	Text string
}

// ActionRecord is the normalized representation of one inbound event,
// ready to be written into the pending inbox for human review.
type ActionRecord struct {
	Kind          RecordKind
	SourceChannel string
	DedupKey      string
	Priority      Priority
	Status        Status
	CreatedAt     time.Time
	Filename      string
	Title         string
	Payload       []Field
	Sections      []Section
}

// urgentKeywords escalate a record to high priority when any of them appears
// in the message text.
var urgentKeywords = []string{"urgent", "asap", "emergency", "help", "payment", "invoice"}

// EscalatePriority returns PriorityHigh when the text contains an urgency
// keyword, matched case-insensitively as a substring.
func EscalatePriority(text string) Priority {
	lower := strings.ToLower(text)
	for _, kw := range urgentKeywords {
		if strings.Contains(lower, kw) {
			return PriorityHigh
		}
	}
	return PriorityNormal
}

// MatchesAny reports whether the text contains any of the keywords,
// case-insensitively. An empty keyword list matches nothing.
func MatchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

var unsafeNameChars = regexp.MustCompile(`[^\p{L}\p{N}_-]`)

// SanitizeName makes free text safe for use in a vault filename: every
// character that is not a letter, digit, underscore, or hyphen becomes "_",
// leading and trailing underscores are stripped, and the result is capped at
// 40 characters. Letters and digits from any script are kept, so contacts
// with non-Latin names still produce distinct filenames.
func SanitizeName(s string) string {
	safe := unsafeNameChars.ReplaceAllString(s, "_")
	safe = strings.Trim(safe, "_")
	if runes := []rune(safe); len(runes) > 40 {
		safe = string(runes[:40])
	}
	return safe
}

// ContentFingerprint returns a short stable fingerprint of preview text.
// Channels that key their state by contact rather than message ID use it to
// detect changed content under the same key.
func ContentFingerprint(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])[:12]
}
