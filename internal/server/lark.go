// Package server adapts push-delivered events into the polling channel
// contract.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/404mw/vaultrelay/internal/biz/domain"
	"github.com/404mw/vaultrelay/internal/biz/repo"
	"github.com/404mw/vaultrelay/internal/biz/usecase"
	"github.com/404mw/vaultrelay/internal/infra/lark"
)

// larkEvent is one message waiting in the queue, tagged with the triage
// decision made at receive time.
type larkEvent struct {
	msg       *lark.Message
	immediate bool
}

// LarkChannel bridges the websocket push stream into the watcher loop. The
// receive callback only classifies the message and drops it into a bounded
// queue; disk I/O (records, the digest buffer) happens when the watcher
// drains the queue. A full queue drops new messages with a warning rather
// than blocking the callback.
//
// Triage: direct messages, bot mentions, and keyword hits become immediate
// events; everything else goes to the digest buffer.
type LarkChannel struct {
	client   *lark.Client
	buffer   repo.BufferRepo
	chatIDs  map[string]bool
	keywords []string
	queue    chan larkEvent
	log      *slog.Logger
	now      func() time.Time
}

// NewLarkChannel creates the push channel. chatIDs is the group allowlist;
// empty means every chat is monitored.
func NewLarkChannel(client *lark.Client, buffer repo.BufferRepo, chatIDs map[string]bool, keywords []string, queueSize int, log *slog.Logger) *LarkChannel {
	if queueSize <= 0 {
		queueSize = 256
	}
	ch := &LarkChannel{
		client:   client,
		buffer:   buffer,
		chatIDs:  chatIDs,
		keywords: keywords,
		queue:    make(chan larkEvent, queueSize),
		log:      log,
		now:      time.Now,
	}
	client.OnMessage(ch.receive)
	return ch
}

func (ch *LarkChannel) Name() string            { return "chat" }
func (ch *LarkChannel) Kind() domain.RecordKind { return domain.KindChatMessage }

// receive runs on the websocket callback path. No blocking, no disk.
func (ch *LarkChannel) receive(msg *lark.Message) {
	if msg.ChatType == "group" && len(ch.chatIDs) > 0 && !ch.chatIDs[msg.ChatID] {
		return
	}

	immediate := msg.ChatType == "p2p" || msg.MentionsBot ||
		domain.EscalatePriority(msg.Content) == domain.PriorityHigh ||
		ch.matchesKeyword(msg.Content)

	select {
	case ch.queue <- larkEvent{msg: msg, immediate: immediate}:
	default:
		ch.log.Warn("event queue full, dropping message", "chat", msg.ChatID, "msg", msg.MsgID)
	}
}

func (ch *LarkChannel) matchesKeyword(content string) bool {
	return domain.MatchesAny(content, ch.keywords)
}

// FetchNewEvents drains the queue. Immediate messages become raw events for
// capture; the rest are written to the digest buffer here, off the callback
// path.
func (ch *LarkChannel) FetchNewEvents(ctx context.Context) ([]domain.RawEvent, error) {
	var events []domain.RawEvent
	for {
		select {
		case e := <-ch.queue:
			if e.immediate {
				events = append(events, ch.toRawEvent(e.msg))
				continue
			}
			if err := ch.bufferMessage(ctx, e.msg); err != nil {
				ch.log.Error("buffering message failed", "chat", e.msg.ChatID, "err", err)
			}
		default:
			return events, nil
		}
	}
}

func (ch *LarkChannel) toRawEvent(msg *lark.Message) domain.RawEvent {
	t := ch.now()
	if msg.CreateTime > 0 {
		t = time.UnixMilli(msg.CreateTime)
	}
	sender := msg.SenderName
	if sender == "" {
		sender = msg.SenderID
	}
	return domain.RawEvent{
		Key:  msg.MsgID,
		Text: msg.Content,
		Time: t,
		Fields: map[string]string{
			"chat_id":   msg.ChatID,
			"chat_type": msg.ChatType,
			"msg_id":    msg.MsgID,
			"sender":    sender,
			"content":   msg.Content,
		},
	}
}

func (ch *LarkChannel) bufferMessage(ctx context.Context, msg *lark.Message) error {
	t := ch.now()
	if msg.CreateTime > 0 {
		t = time.UnixMilli(msg.CreateTime)
	}
	return ch.buffer.AddMessage(ctx, &domain.BufferedMessage{
		ChatID:     msg.ChatID,
		MsgID:      msg.MsgID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Content:    msg.Content,
		CreatedAt:  t,
	})
}

// BuildRecord turns one immediate chat message into an action record.
func (ch *LarkChannel) BuildRecord(ev domain.RawEvent) (*domain.ActionRecord, error) {
	msgID := ev.Fields["msg_id"]
	if msgID == "" {
		return nil, fmt.Errorf("chat event %q has no message id", ev.Key)
	}
	chatID := ev.Fields["chat_id"]
	sender := ev.Fields["sender"]
	content := ev.Fields["content"]

	return &domain.ActionRecord{
		Kind:          domain.KindChatMessage,
		SourceChannel: ch.Name(),
		DedupKey:      ev.Key,
		Priority:      domain.EscalatePriority(content),
		Status:        domain.StatusPending,
		CreatedAt:     ev.Time,
		Filename:      fmt.Sprintf("CHAT_%s_%s.md", domain.SanitizeName(chatID), domain.SanitizeName(msgID)),
		Title:         fmt.Sprintf("Chat message from %s", sender),
		Payload: []domain.Field{
			{Key: "chat_id", Value: chatID},
			{Key: "chat_type", Value: ev.Fields["chat_type"]},
			{Key: "message_id", Value: msgID},
			{Key: "sender", Value: usecase.SanitizePreview(sender, 100)},
			{Key: "message_preview", Value: usecase.SanitizePreview(content, 200)},
		},
		Sections: []domain.Section{
			{Name: "Message", Text: content},
			{Name: "Suggested Actions", Text: "- [ ] Read the message\n- [ ] Draft a reply for approval"},
		},
	}, nil
}

var _ repo.Channel = (*LarkChannel)(nil)
