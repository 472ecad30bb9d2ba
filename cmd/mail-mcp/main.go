// Command mail-mcp serves the vault's mail tools over MCP stdio, so an
// agent session can send approved mail, stage drafts, and inspect the
// pending inbox.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/404mw/vaultrelay/internal/conf"
	"github.com/404mw/vaultrelay/internal/data"
	"github.com/404mw/vaultrelay/internal/infra/mail"
	"github.com/404mw/vaultrelay/mcpserver"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := conf.Load()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if err := cfg.ValidateDispatch(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Stdout carries the MCP protocol; all logging goes to stderr.
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	auditRepo := data.NewAuditRepo(cfg.Vault.LogsDir(), logger.With("component", "audit"))
	vaultRepo := data.NewVaultRepo(cfg.Vault.PendingDir(), cfg.Vault.ApprovedDir(), cfg.Vault.DoneDir())
	mailer := mail.NewSender(cfg.Mail, logger.With("component", "mail"))

	srv := mcpserver.NewServer(mailer, vaultRepo, auditRepo, cfg.DryRun, logger.With("component", "mcp"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	logger.Info("mail MCP server starting", "dry_run", cfg.DryRun)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
