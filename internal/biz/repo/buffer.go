package repo

import (
	"context"
	"time"

	"github.com/404mw/vaultrelay/internal/biz/domain"
)

// BufferRepo stores chat messages held back for the periodic digest.
type BufferRepo interface {
	AddMessage(ctx context.Context, msg *domain.BufferedMessage) error
	GetUnprocessed(ctx context.Context) ([]*domain.BufferedMessage, error)
	MarkProcessed(ctx context.Context, ids []int64) error
	CleanupOld(ctx context.Context, before time.Time) (int64, error)
	Close() error
}
