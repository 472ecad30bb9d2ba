package repo

import "github.com/404mw/vaultrelay/internal/biz/domain"

// AuditRepo appends entries to the date-partitioned audit journal.
type AuditRepo interface {
	Append(entry domain.AuditEntry) error
}
