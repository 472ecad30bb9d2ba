package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/404mw/vaultrelay/internal/biz/repo"
	"github.com/404mw/vaultrelay/internal/biz/usecase"
	"github.com/404mw/vaultrelay/internal/conf"
	"github.com/404mw/vaultrelay/internal/data"
	"github.com/404mw/vaultrelay/internal/infra/mail"
	"github.com/404mw/vaultrelay/internal/infra/social"
	"github.com/404mw/vaultrelay/internal/service"
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
	if err := cfg.ValidateSocial(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := newLogger(cfg.Debug)
	logger.Info("starting dispatcher", "vault", cfg.Vault.Root, "dry_run", cfg.DryRun)

	auditRepo := data.NewAuditRepo(cfg.Vault.LogsDir(), logger.With("component", "audit"))
	vaultRepo := data.NewVaultRepo(cfg.Vault.PendingDir(), cfg.Vault.ApprovedDir(), cfg.Vault.DoneDir())

	// Outbound clients are only constructed in live mode; dry-run never
	// touches the network.
	var mailer repo.Mailer
	var poster repo.SocialPoster
	if !cfg.DryRun {
		mailer = mail.NewSender(cfg.Mail, logger.With("component", "mail"))
		if cfg.Social.AccessToken != "" {
			poster = social.NewLinkedIn(cfg.Social, logger.With("component", "social"))
		}
	}

	dispatch := usecase.NewDispatchUsecase(vaultRepo, auditRepo, mailer, poster, cfg.DryRun, logger.With("component", "dispatch"))
	dispatcher := service.NewDispatcher(dispatch, cfg.Watch.DispatchInterval(), logger.With("component", "dispatcher"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher.Start(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	cancel()
	dispatcher.Stop()
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
