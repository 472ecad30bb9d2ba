package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/404mw/vaultrelay/internal/biz/domain"
	"github.com/404mw/vaultrelay/internal/biz/repo"
	"github.com/404mw/vaultrelay/internal/frontmatter"
)

// DispatchUsecase executes human-approved records: expiry check, routing to
// the action handler, audit, and archival.
type DispatchUsecase struct {
	vault  repo.VaultRepo
	audit  repo.AuditRepo
	mailer repo.Mailer
	social repo.SocialPoster
	dryRun bool
	now    func() time.Time
	log    *slog.Logger
}

// NewDispatchUsecase creates the dispatch pipeline.
func NewDispatchUsecase(vault repo.VaultRepo, audit repo.AuditRepo, mailer repo.Mailer, social repo.SocialPoster, dryRun bool, log *slog.Logger) *DispatchUsecase {
	return &DispatchUsecase{
		vault:  vault,
		audit:  audit,
		mailer: mailer,
		social: social,
		dryRun: dryRun,
		now:    time.Now,
		log:    log,
	}
}

// SetClock overrides the dispatch clock. Tests use it to pin expiry checks.
func (uc *DispatchUsecase) SetClock(now func() time.Time) { uc.now = now }

// ProcessApproved scans the approved directory once and processes every
// record found. Per-record failures are logged and do not stop the scan.
func (uc *DispatchUsecase) ProcessApproved(ctx context.Context) error {
	files, err := uc.vault.ListApproved()
	if err != nil {
		return fmt.Errorf("list approved records: %w", err)
	}
	for _, name := range files {
		if err := uc.ProcessFile(ctx, name); err != nil {
			uc.log.Error("failed to process approved record", "file", name, "err", err)
		}
	}
	return nil
}

// ProcessFile runs one approved record through the dispatch pipeline.
// Malformed records are left in place for the operator to fix; executed and
// expired records are archived.
func (uc *DispatchUsecase) ProcessFile(ctx context.Context, filename string) error {
	content, err := uc.vault.ReadApproved(filename)
	if err != nil {
		return err
	}

	fields, body := frontmatter.Parse(content)
	if len(fields) == 0 {
		uc.log.Warn("approved record has no header, leaving in place", "file", filename)
		return nil
	}

	approval := domain.ApprovalFromHeader(fields, body)
	if approval.Action == "" {
		uc.log.Warn("approved record has no action field, leaving in place", "file", filename)
		return nil
	}
	if !knownAction(approval.Action) {
		uc.log.Warn("unknown action, leaving record in place", "file", filename, "action", approval.Action)
		return nil
	}

	expired, parseErr := approval.Expired(uc.now())
	if parseErr != nil {
		uc.log.Warn("could not parse expires field, treating record as non-expiring",
			"file", filename, "expires", approval.ExpiresRaw, "err", parseErr)
	}
	if expired {
		uc.log.Info("approval expired, skipping", "file", filename, "expires", approval.ExpiresRaw)
		uc.writeAudit(approval, filename, string(approval.Action)+"_skipped", domain.ResultSkippedExpired)
		return uc.archive(filename, content)
	}

	result := uc.execute(ctx, approval, filename)

	uc.writeAudit(approval, filename, string(approval.Action)+"_executed", result)
	return uc.archive(filename, content)
}

// execute routes the approval to its handler and returns the audit result.
// Handler failures become the "error" result; the record is still archived
// so a poisoned approval cannot wedge the queue.
func (uc *DispatchUsecase) execute(ctx context.Context, approval *domain.ApprovalRecord, filename string) string {
	switch approval.Action {
	case domain.ActionSendEmail:
		return uc.sendEmail(ctx, approval, filename)
	case domain.ActionDraftEmail:
		return uc.draftEmail(approval, filename)
	case domain.ActionPostUpdate:
		return uc.postUpdate(ctx, approval, filename)
	case domain.ActionManualReplyChat:
		return uc.manualReply(approval, filename, "chat")
	case domain.ActionManualReplyWhatsApp:
		return uc.manualReply(approval, filename, "whatsapp")
	default:
		return domain.ResultError
	}
}

func knownAction(a domain.ActionType) bool {
	switch a {
	case domain.ActionSendEmail, domain.ActionDraftEmail, domain.ActionPostUpdate,
		domain.ActionManualReplyChat, domain.ActionManualReplyWhatsApp:
		return true
	}
	return false
}

// draftEmail surfaces an approved draft for the operator to send from their
// own mail client. Nothing goes out over the network.
func (uc *DispatchUsecase) draftEmail(approval *domain.ApprovalRecord, filename string) string {
	draft := frontmatter.ExtractSection(approval.Body, "Draft Reply")
	if draft == "" {
		draft = frontmatter.ExtractSection(approval.Body, "Draft")
	}
	uc.log.Info("draft ready to send manually",
		"to", approval.To, "subject", approval.Subject, "file", filename, "draft", draft)
	return domain.ResultManualRequired
}

func (uc *DispatchUsecase) sendEmail(ctx context.Context, approval *domain.ApprovalRecord, filename string) string {
	if approval.To == "" {
		uc.log.Error("send_email approval missing recipient", "file", filename)
		return domain.ResultError
	}
	draft := frontmatter.ExtractSection(approval.Body, "Draft Reply")
	if draft == "" {
		draft = frontmatter.ExtractSection(approval.Body, "Draft")
	}
	if draft == "" {
		uc.log.Error("send_email approval has no draft section", "file", filename)
		return domain.ResultError
	}

	if uc.dryRun {
		uc.log.Info("[dry-run] would send email", "to", approval.To, "subject", approval.Subject)
		return domain.ResultDryRun
	}
	if uc.mailer == nil {
		uc.log.Error("no mailer configured", "file", filename)
		return domain.ResultError
	}

	receipt, err := uc.mailer.SendMail(ctx, repo.OutboundMail{
		To:       approval.To,
		CC:       approval.CC,
		Subject:  approval.Subject,
		Body:     draft,
		ThreadID: approval.ThreadID,
	})
	if err != nil {
		uc.log.Error("send email failed", "file", filename, "to", approval.To, "err", err)
		return domain.ResultError
	}
	uc.log.Info("email sent", "to", approval.To, "id", receipt.ID)
	return "sent:" + receipt.ID
}

func (uc *DispatchUsecase) postUpdate(ctx context.Context, approval *domain.ApprovalRecord, filename string) string {
	text := frontmatter.ExtractSection(approval.Body, "Draft Content")
	if text == "" {
		text = frontmatter.ExtractSection(approval.Body, "Draft")
	}
	if text == "" {
		uc.log.Error("post_update approval has no draft section", "file", filename)
		return domain.ResultError
	}

	if uc.dryRun {
		uc.log.Info("[dry-run] would publish post", "chars", len(text))
		return domain.ResultDryRun
	}
	if uc.social == nil {
		uc.log.Error("no social poster configured", "file", filename)
		return domain.ResultError
	}

	receipt, err := uc.social.PostUpdate(ctx, text)
	if err != nil {
		uc.log.Error("publish post failed", "file", filename, "err", err)
		return domain.ResultError
	}
	uc.log.Info("post published", "id", receipt.ID)
	return "posted:" + receipt.ID
}

// manualReply surfaces the drafted reply for the operator to send by hand.
// Platforms without a sending API route here.
func (uc *DispatchUsecase) manualReply(approval *domain.ApprovalRecord, filename, platform string) string {
	reply := frontmatter.ExtractSection(approval.Body, "Draft Reply")
	if reply == "" {
		reply = frontmatter.ExtractSection(approval.Body, "Message")
	}
	target := approval.Contact
	if target == "" {
		target = approval.Channel
	}
	uc.log.Info("manual reply required",
		"platform", platform, "to", target, "file", filename, "reply", reply)
	return domain.ResultManualRequired
}

func (uc *DispatchUsecase) writeAudit(approval *domain.ApprovalRecord, filename, actionType, result string) {
	target := approval.To
	if target == "" {
		target = approval.Contact
	}
	if target == "" {
		target = approval.Channel
	}
	entry := domain.AuditEntry{
		ActionType: actionType,
		Actor:      "dispatcher",
		Target:     target,
		Parameters: map[string]string{
			"approved_file": filename,
			"action":        string(approval.Action),
		},
		ApprovalStatus: "approved",
		ApprovedBy:     approval.ApprovedBy,
		Result:         result,
	}
	if err := uc.audit.Append(entry); err != nil {
		uc.log.Error("audit append failed", "file", filename, "err", err)
	}
}

// archive rewrites the record's status to done and moves it to the archive.
// Dry-run mode leaves the file where it is so a later live run can execute
// it for real.
func (uc *DispatchUsecase) archive(filename, content string) error {
	if uc.dryRun {
		uc.log.Info("[dry-run] would archive record", "file", filename)
		return nil
	}
	updated := frontmatter.RewriteStatus(content, string(domain.StatusDone))
	if err := uc.vault.ArchiveDone(filename, updated); err != nil {
		return fmt.Errorf("archive record: %w", err)
	}
	uc.log.Info("record archived", "file", filename)
	return nil
}
