package data

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/404mw/vaultrelay/internal/biz/domain"
	"github.com/404mw/vaultrelay/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// bufferRepo implements the digest buffer on sqlite.
type bufferRepo struct {
	db  *sql.DB
	log *slog.Logger
}

// NewBufferRepo opens (creating if needed) the digest buffer database.
func NewBufferRepo(dbPath string, log *slog.Logger) (repo.BufferRepo, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS buffered_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id TEXT NOT NULL,
			chat_name TEXT,
			msg_id TEXT UNIQUE NOT NULL,
			content TEXT NOT NULL,
			sender_id TEXT,
			sender_name TEXT,
			created_at INTEGER NOT NULL,
			processed INTEGER DEFAULT 0,
			processed_at INTEGER
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buffered_messages table: %w", err)
	}

	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_buffered_chat_processed ON buffered_messages(chat_id, processed)`)
	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_buffered_created ON buffered_messages(created_at)`)

	log.Debug("digest buffer initialized", "path", dbPath)
	return &bufferRepo{db: db, log: log}, nil
}

// AddMessage adds a message to the buffer. Duplicate message IDs are
// silently ignored so redelivered events cannot double-buffer.
func (r *bufferRepo) AddMessage(ctx context.Context, msg *domain.BufferedMessage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO buffered_messages (chat_id, chat_name, msg_id, content, sender_id, sender_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, msg.ChatID, msg.ChatName, msg.MsgID, msg.Content, msg.SenderID, msg.SenderName, msg.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to add buffered message: %w", err)
	}
	return nil
}

// GetUnprocessed returns every unprocessed message, ordered by chat and then
// arrival time, so digest building can group by chat in one pass.
func (r *bufferRepo) GetUnprocessed(ctx context.Context) ([]*domain.BufferedMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, chat_id, chat_name, msg_id, content, sender_id, sender_name, created_at
		FROM buffered_messages
		WHERE processed = 0
		ORDER BY chat_id, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query buffered messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.BufferedMessage
	for rows.Next() {
		var msg domain.BufferedMessage
		var createdAt int64
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.ChatName, &msg.MsgID, &msg.Content, &msg.SenderID, &msg.SenderName, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan buffered message: %w", err)
		}
		msg.CreatedAt = time.Unix(createdAt, 0)
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// MarkProcessed marks messages as consumed by a digest.
func (r *bufferRepo) MarkProcessed(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids)+1)
	args[0] = time.Now().Unix()
	for i, id := range ids {
		placeholders[i] = "?"
		args[i+1] = id
	}

	query := fmt.Sprintf(`
		UPDATE buffered_messages
		SET processed = 1, processed_at = ?
		WHERE id IN (%s)
	`, strings.Join(placeholders, ","))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark messages processed: %w", err)
	}
	return nil
}

// CleanupOld deletes processed messages older than the cutoff.
func (r *bufferRepo) CleanupOld(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM buffered_messages WHERE created_at < ? AND processed = 1
	`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old messages: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection.
func (r *bufferRepo) Close() error {
	return r.db.Close()
}
