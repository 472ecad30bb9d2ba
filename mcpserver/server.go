// Package mcpserver exposes vault operations as MCP tools, so an agent
// session can send approved mail, stage drafts, and inspect the pending
// inbox.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/404mw/vaultrelay/internal/biz/domain"
	"github.com/404mw/vaultrelay/internal/biz/repo"
	"github.com/404mw/vaultrelay/internal/biz/usecase"
	"github.com/404mw/vaultrelay/internal/frontmatter"
)

// VaultMCPServer provides the mail and inbox tools over MCP.
type VaultMCPServer struct {
	server *mcp.Server
	mailer repo.Mailer
	vault  repo.VaultRepo
	audit  repo.AuditRepo
	dryRun bool
	now    func() time.Time
	log    *slog.Logger
}

// NewServer creates the MCP server and registers its tools.
func NewServer(mailer repo.Mailer, vault repo.VaultRepo, audit repo.AuditRepo, dryRun bool, log *slog.Logger) *VaultMCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "vault-mail-tools",
		Version: "v1.0.0",
	}, nil)

	s := &VaultMCPServer{
		server: server,
		mailer: mailer,
		vault:  vault,
		audit:  audit,
		dryRun: dryRun,
		now:    time.Now,
		log:    log,
	}
	s.registerTools()
	return s
}

func (s *VaultMCPServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "send_email",
		Description: "Send an email immediately. Use only for messages the operator has already approved in conversation.",
	}, s.handleSendEmail)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "draft_email",
		Description: "Stage an email as a pending approval record instead of sending it. The operator reviews and approves it in the vault.",
	}, s.handleDraftEmail)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_pending",
		Description: "List the records currently waiting in the pending inbox.",
	}, s.handleListPending)
}

// Run serves MCP over stdio until the context is canceled.
func (s *VaultMCPServer) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// SendEmailInput is the input for the send_email tool.
type SendEmailInput struct {
	To      string `json:"to" jsonschema:"description=Recipient address"`
	CC      string `json:"cc,omitempty" jsonschema:"description=Optional comma-separated CC addresses"`
	Subject string `json:"subject" jsonschema:"description=Subject line"`
	Body    string `json:"body" jsonschema:"description=Plain-text message body"`
}

// SendEmailOutput is the output for the send_email tool.
type SendEmailOutput struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s *VaultMCPServer) handleSendEmail(ctx context.Context, req *mcp.CallToolRequest, input SendEmailInput) (*mcp.CallToolResult, SendEmailOutput, error) {
	if input.To == "" {
		return nil, SendEmailOutput{Error: "recipient is required"}, nil
	}

	result := domain.ResultDryRun
	var msgID string
	if s.dryRun {
		s.log.Info("[dry-run] would send email", "to", input.To, "subject", input.Subject)
	} else {
		receipt, err := s.mailer.SendMail(ctx, repo.OutboundMail{
			To:      input.To,
			CC:      input.CC,
			Subject: input.Subject,
			Body:    input.Body,
		})
		if err != nil {
			s.auditSend(input.To, domain.ResultError)
			return nil, SendEmailOutput{Error: err.Error()}, nil
		}
		msgID = receipt.ID
		result = "sent:" + receipt.ID
	}

	s.auditSend(input.To, result)
	return nil, SendEmailOutput{Success: true, MessageID: msgID}, nil
}

func (s *VaultMCPServer) auditSend(to, result string) {
	entry := domain.AuditEntry{
		ActionType:     "send_email_executed",
		Actor:          "mcp",
		Target:         to,
		Parameters:     map[string]string{"action": string(domain.ActionSendEmail)},
		ApprovalStatus: "approved",
		ApprovedBy:     "human",
		Result:         result,
	}
	if err := s.audit.Append(entry); err != nil {
		s.log.Error("audit append failed", "err", err)
	}
}

// DraftEmailInput is the input for the draft_email tool.
type DraftEmailInput struct {
	To      string `json:"to" jsonschema:"description=Recipient address"`
	Subject string `json:"subject" jsonschema:"description=Subject line"`
	Body    string `json:"body" jsonschema:"description=Drafted message body"`
}

// DraftEmailOutput is the output for the draft_email tool.
type DraftEmailOutput struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *VaultMCPServer) handleDraftEmail(ctx context.Context, req *mcp.CallToolRequest, input DraftEmailInput) (*mcp.CallToolResult, DraftEmailOutput, error) {
	if input.To == "" {
		return nil, DraftEmailOutput{Error: "recipient is required"}, nil
	}

	now := s.now().UTC()
	rec := &domain.ActionRecord{
		Kind:          domain.KindEmail,
		SourceChannel: "mcp",
		Priority:      domain.PriorityNormal,
		Status:        domain.StatusPending,
		CreatedAt:     now,
		Filename:      fmt.Sprintf("DRAFT_%s_%s.md", domain.SanitizeName(input.To), now.Format("2006-01-02_150405")),
		Title:         "Drafted email: " + input.Subject,
		Payload: []domain.Field{
			{Key: "action", Value: string(domain.ActionSendEmail)},
			{Key: "to", Value: input.To},
			{Key: "subject", Value: usecase.SanitizePreview(input.Subject, 150)},
		},
		Sections: []domain.Section{
			{Name: "Draft Reply", Text: input.Body},
		},
	}

	if err := s.vault.WritePending(rec.Filename, usecase.RenderDocument(rec)); err != nil {
		return nil, DraftEmailOutput{Error: err.Error()}, nil
	}
	s.log.Info("draft staged", "file", rec.Filename, "to", input.To)
	return nil, DraftEmailOutput{Success: true, Filename: rec.Filename}, nil
}

// ListPendingInput is empty; the tool takes no arguments.
type ListPendingInput struct{}

// PendingRecord summarizes one record in the pending inbox.
type PendingRecord struct {
	Filename string `json:"filename"`
	Type     string `json:"type,omitempty"`
	Priority string `json:"priority,omitempty"`
	Source   string `json:"source,omitempty"`
}

// ListPendingOutput is the output for the list_pending tool.
type ListPendingOutput struct {
	Records []PendingRecord `json:"records"`
	Error   string          `json:"error,omitempty"`
}

func (s *VaultMCPServer) handleListPending(ctx context.Context, req *mcp.CallToolRequest, input ListPendingInput) (*mcp.CallToolResult, ListPendingOutput, error) {
	names, err := s.vault.ListPending()
	if err != nil {
		return nil, ListPendingOutput{Error: err.Error()}, nil
	}

	out := ListPendingOutput{Records: []PendingRecord{}}
	for _, name := range names {
		rec := PendingRecord{Filename: name}
		if content, err := s.vault.ReadPending(name); err == nil {
			fields, _ := frontmatter.Parse(content)
			rec.Type = fields["type"]
			rec.Priority = fields["priority"]
			rec.Source = fields["source"]
		}
		out.Records = append(out.Records, rec)
	}
	return nil, out, nil
}
