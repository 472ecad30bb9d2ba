package domain

// Audit result values shared across dispatch handlers.
const (
	ResultDryRun         = "dry_run"
	ResultManualRequired = "manual_required"
	ResultError          = "error"
	ResultSkippedExpired = "skipped_expired"
	ResultSuccess        = "success"
)

// AuditEntry is one immutable line of the daily audit journal. Entries are
// only ever appended; nothing in the system rewrites them.
type AuditEntry struct {
	Timestamp      string            `json:"timestamp"`
	ActionType     string            `json:"action_type"`
	Actor          string            `json:"actor"`
	Target         string            `json:"target"`
	Parameters     map[string]string `json:"parameters"`
	ApprovalStatus string            `json:"approval_status"`
	ApprovedBy     string            `json:"approved_by,omitempty"`
	Result         string            `json:"result"`
}
