// Package lark wraps the Lark open-platform SDK behind the small surface
// the chat channel needs: a websocket event stream of normalized messages.
package lark

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
)

// Message is one received chat message, normalized from the SDK's event
// payload.
type Message struct {
	ChatID      string
	MsgID       string
	ChatType    string // p2p, group
	Content     string
	SenderID    string
	SenderName  string
	MentionsBot bool
	CreateTime  int64 // milliseconds since epoch
}

// MessageHandler receives each inbound message. It must return quickly; the
// SDK acknowledges the event only after the dispatcher callback returns.
type MessageHandler func(msg *Message)

// Client is the websocket event client.
type Client struct {
	appID     string
	appSecret string
	wsCli     *larkws.Client
	onMessage MessageHandler
	log       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient creates a chat event client.
func NewClient(appID, appSecret string, log *slog.Logger) *Client {
	return &Client{appID: appID, appSecret: appSecret, log: log}
}

// OnMessage sets the message handler.
func (c *Client) OnMessage(handler MessageHandler) {
	c.onMessage = handler
}

// Start connects the websocket and blocks until the context is canceled or
// the connection fails.
func (c *Client) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	eventHandler := dispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(ctx context.Context, event *larkim.P2MessageReceiveV1) error {
			// Handle asynchronously so the SDK can ACK before the platform
			// retries on timeout.
			go c.handleMessage(event)
			return nil
		})

	c.wsCli = larkws.NewClient(c.appID, c.appSecret,
		larkws.WithEventHandler(eventHandler),
		larkws.WithLogLevel(larkcore.LogLevelWarn),
	)

	c.log.Info("connecting chat websocket")
	return c.wsCli.Start(c.ctx)
}

// Stop disconnects the websocket.
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Client) handleMessage(event *larkim.P2MessageReceiveV1) {
	rawMsg := event.Event.Message
	if rawMsg == nil || rawMsg.ChatId == nil || rawMsg.MessageId == nil {
		return
	}

	// Bot-originated messages would loop straight back in.
	if event.Event.Sender != nil && event.Event.Sender.SenderType != nil &&
		*event.Event.Sender.SenderType == "app" {
		return
	}

	msg := &Message{
		ChatID: *rawMsg.ChatId,
		MsgID:  *rawMsg.MessageId,
	}
	if rawMsg.ChatType != nil {
		msg.ChatType = *rawMsg.ChatType
	}
	if rawMsg.CreateTime != nil {
		if ts, err := strconv.ParseInt(*rawMsg.CreateTime, 10, 64); err == nil {
			msg.CreateTime = ts
		}
	}
	if event.Event.Sender != nil && event.Event.Sender.SenderId != nil &&
		event.Event.Sender.SenderId.OpenId != nil {
		msg.SenderID = *event.Event.Sender.SenderId.OpenId
	}

	mentionNames := map[string]string{}
	for _, mention := range rawMsg.Mentions {
		if mention.Key != nil && mention.Name != nil {
			mentionNames[*mention.Key] = *mention.Name
		}
		// Any mention in a message delivered to the bot's event stream is
		// either the bot itself or someone the bot should surface; treat a
		// non-empty mention list as a bot mention.
		if mention.Id != nil && mention.Id.OpenId != nil {
			msg.MentionsBot = true
		}
	}

	msgType := ""
	if rawMsg.MessageType != nil {
		msgType = *rawMsg.MessageType
	}
	content := ""
	if rawMsg.Content != nil {
		content = *rawMsg.Content
	}
	switch msgType {
	case "text":
		msg.Content = parseTextContent(content, mentionNames)
	case "post":
		msg.Content = parsePostContent(content, mentionNames)
	default:
		c.log.Debug("ignoring unsupported message type", "type", msgType, "chat", msg.ChatID)
		return
	}

	if c.onMessage != nil {
		c.onMessage(msg)
	}
}

// parseTextContent extracts the text field and replaces mention placeholders
// (@_user_1) with the mentioned names.
func parseTextContent(content string, mentionNames map[string]string) string {
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return content
	}
	return replaceMentions(parsed.Text, mentionNames)
}

// parsePostContent flattens a rich-text post into plain text lines.
func parsePostContent(content string, mentionNames map[string]string) string {
	var parsed struct {
		Title   string `json:"title"`
		Content [][]struct {
			Tag    string `json:"tag"`
			Text   string `json:"text"`
			UserID string `json:"user_id"`
		} `json:"content"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return content
	}

	var b strings.Builder
	if parsed.Title != "" {
		b.WriteString(parsed.Title + "\n")
	}
	for _, line := range parsed.Content {
		for _, node := range line {
			switch node.Tag {
			case "text":
				b.WriteString(node.Text)
			case "at":
				b.WriteString(fmt.Sprintf("@%s", node.UserID))
			}
		}
		b.WriteString("\n")
	}
	return replaceMentions(strings.TrimSpace(b.String()), mentionNames)
}

func replaceMentions(text string, mentionNames map[string]string) string {
	for key, name := range mentionNames {
		text = strings.ReplaceAll(text, key, "@"+name)
	}
	return text
}
