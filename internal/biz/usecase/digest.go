package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/404mw/vaultrelay/internal/biz/domain"
	"github.com/404mw/vaultrelay/internal/biz/repo"
)

// DigestUsecase rolls buffered low-urgency chat messages into one summary
// record per chat, so group chatter reaches the pending inbox in batches
// rather than one record per message.
type DigestUsecase struct {
	buffer  repo.BufferRepo
	capture *CaptureUsecase
	now     func() time.Time
	log     *slog.Logger
}

// NewDigestUsecase creates the digest builder.
func NewDigestUsecase(buffer repo.BufferRepo, capture *CaptureUsecase, log *slog.Logger) *DigestUsecase {
	return &DigestUsecase{buffer: buffer, capture: capture, now: time.Now, log: log}
}

// SetClock overrides the digest clock for tests.
func (uc *DigestUsecase) SetClock(now func() time.Time) { uc.now = now }

// BuildDigests drains the buffer and captures one digest record per chat
// that has unprocessed messages. Messages are only marked processed after
// their digest was captured.
func (uc *DigestUsecase) BuildDigests(ctx context.Context) error {
	msgs, err := uc.buffer.GetUnprocessed(ctx)
	if err != nil {
		return fmt.Errorf("load buffered messages: %w", err)
	}
	if len(msgs) == 0 {
		return nil
	}

	byChat := map[string][]*domain.BufferedMessage{}
	var order []string
	for _, m := range msgs {
		if _, ok := byChat[m.ChatID]; !ok {
			order = append(order, m.ChatID)
		}
		byChat[m.ChatID] = append(byChat[m.ChatID], m)
	}

	for _, chatID := range order {
		group := byChat[chatID]
		created, err := uc.digestChat(ctx, chatID, group)
		if err != nil {
			uc.log.Error("digest failed", "chat", chatID, "err", err)
			continue
		}
		if !created {
			// Dedup swallowed the digest (a second cycle inside the same
			// window). The messages stay buffered for the next window.
			uc.log.Debug("digest already captured for this window", "chat", chatID)
			continue
		}
		ids := make([]int64, len(group))
		for i, m := range group {
			ids[i] = m.ID
		}
		if err := uc.buffer.MarkProcessed(ctx, ids); err != nil {
			uc.log.Error("mark processed failed", "chat", chatID, "err", err)
		}
	}
	return nil
}

func (uc *DigestUsecase) digestChat(ctx context.Context, chatID string, msgs []*domain.BufferedMessage) (bool, error) {
	now := uc.now().UTC()
	chatName := msgs[0].ChatName
	if chatName == "" {
		chatName = chatID
	}

	var lines []string
	for _, m := range msgs {
		sender := m.SenderName
		if sender == "" {
			sender = m.SenderID
		}
		lines = append(lines, fmt.Sprintf("- [%s] %s: %s",
			m.CreatedAt.UTC().Format("15:04"), sender, SanitizePreview(m.Content, 200)))
	}

	rec := &domain.ActionRecord{
		Kind:          domain.KindChatMessage,
		SourceChannel: "chat_digest",
		DedupKey:      digestKey(chatID, now),
		Priority:      domain.PriorityNormal,
		Status:        domain.StatusPending,
		CreatedAt:     now,
		Filename:      fmt.Sprintf("CHAT_DIGEST_%s_%s.md", domain.SanitizeName(chatName), now.Format("2006-01-02_1504")),
		Title:         fmt.Sprintf("Chat digest: %s (%d messages)", chatName, len(msgs)),
		Payload: []domain.Field{
			{Key: "chat_id", Value: chatID},
			{Key: "chat_name", Value: chatName},
			{Key: "message_count", Value: fmt.Sprintf("%d", len(msgs))},
		},
		Sections: []domain.Section{
			{Name: "Messages", Text: strings.Join(lines, "\n")},
			{Name: "Suggested Actions", Text: "- [ ] Review the conversation\n- [ ] Reply in the chat if needed"},
		},
	}

	ev := domain.RawEvent{Key: rec.DedupKey, Time: now}
	return uc.capture.ProcessPrebuilt(ctx, "chat_digest", ev, rec)
}

// digestKey is unique per chat and digest window, so re-running a cycle in
// the same minute cannot produce duplicate records.
func digestKey(chatID string, now time.Time) string {
	return fmt.Sprintf("digest_%s_%s", chatID, now.Format("2006-01-02T15:04"))
}
