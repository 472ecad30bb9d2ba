package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/404mw/vaultrelay/internal/biz/domain"
	"github.com/404mw/vaultrelay/internal/biz/usecase"
	"github.com/404mw/vaultrelay/internal/channel"
	"github.com/404mw/vaultrelay/internal/conf"
	"github.com/404mw/vaultrelay/internal/data"
	"github.com/404mw/vaultrelay/internal/infra/lark"
	"github.com/404mw/vaultrelay/internal/server"
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

	logger := newLogger(cfg.Debug)
	logger.Info("starting watchers", "vault", cfg.Vault.Root, "dry_run", cfg.DryRun)

	stateRepo := data.NewStateRepo(cfg.Vault.StateDir(), logger.With("component", "state"))
	auditRepo := data.NewAuditRepo(cfg.Vault.LogsDir(), logger.With("component", "audit"))
	vaultRepo := data.NewVaultRepo(cfg.Vault.PendingDir(), cfg.Vault.ApprovedDir(), cfg.Vault.DoneDir())
	capture := usecase.NewCaptureUsecase(stateRepo, vaultRepo, auditRepo, cfg.DryRun, logger.With("component", "capture"))

	var set service.WatcherSet

	set.Add(service.NewWatcherLoop(
		channel.NewFilesystem(cfg.Vault.InboxDir()),
		capture, cfg.Watch.FSInterval(), logger.With("watcher", "filesystem")))

	mailSource := channel.NewFileMailSource(filepath.Join(cfg.Vault.StateDir(), "mail_unread.json"))
	set.Add(service.NewWatcherLoop(
		channel.NewMail(mailSource),
		capture, cfg.Watch.MailInterval(), logger.With("watcher", "email")))

	whatsappSource := channel.NewFileConversationSource(filepath.Join(cfg.Vault.StateDir(), "whatsapp_unread.json"))
	set.Add(service.NewWatcherLoop(
		channel.NewScrape("whatsapp", domain.KindChatMessage, whatsappSource, cfg.Watch.Keywords),
		capture, cfg.Watch.ScrapeInterval(), logger.With("watcher", "whatsapp")))

	linkedinSource := channel.NewFileConversationSource(filepath.Join(cfg.Vault.StateDir(), "linkedin_unread.json"))
	set.Add(service.NewWatcherLoop(
		channel.NewScrape("linkedin", domain.KindSocialMessage, linkedinSource, cfg.Watch.Keywords),
		capture, cfg.Watch.ScrapeInterval(), logger.With("watcher", "linkedin")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Push-driven chat channel, only when credentials are configured.
	var larkClient *lark.Client
	var digestSched *service.DigestScheduler
	if cfg.Lark.Enabled() {
		if err := cfg.ValidateLark(); err != nil {
			log.Fatalf("Invalid config: %v", err)
		}
		bufferRepo, err := data.NewBufferRepo(cfg.Lark.BufferDBPath, logger.With("component", "buffer"))
		if err != nil {
			log.Fatalf("Failed to open digest buffer: %v", err)
		}
		defer bufferRepo.Close()

		larkClient = lark.NewClient(cfg.Lark.AppID, cfg.Lark.AppSecret, logger.With("component", "lark"))
		chatChannel := server.NewLarkChannel(larkClient, bufferRepo,
			cfg.MonitoredChats(), cfg.Watch.Keywords, cfg.Lark.QueueSize,
			logger.With("component", "chat"))
		set.Add(service.NewWatcherLoop(chatChannel, capture, cfg.Watch.ScrapeInterval(), logger.With("watcher", "chat")))

		digest := usecase.NewDigestUsecase(bufferRepo, capture, logger.With("component", "digest"))
		digestSched = service.NewDigestScheduler(digest, bufferRepo, cfg.Lark.DigestInterval(), logger.With("component", "digest"))
		digestSched.Start(ctx)

		go func() {
			if err := larkClient.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("chat websocket exited", "err", err)
			}
		}()
	}

	set.StartAll(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	cancel()
	set.StopAll()
	if digestSched != nil {
		digestSched.Stop()
	}
	if larkClient != nil {
		larkClient.Stop()
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
