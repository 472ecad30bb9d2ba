// Command post-trigger performs one daily-trigger cycle and exits. It is
// meant to be run from cron; the per-day dedup key makes repeated runs
// within the same UTC day no-ops.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/404mw/vaultrelay/internal/biz/usecase"
	"github.com/404mw/vaultrelay/internal/channel"
	"github.com/404mw/vaultrelay/internal/conf"
	"github.com/404mw/vaultrelay/internal/data"
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

	stateRepo := data.NewStateRepo(cfg.Vault.StateDir(), logger.With("component", "state"))
	auditRepo := data.NewAuditRepo(cfg.Vault.LogsDir(), logger.With("component", "audit"))
	vaultRepo := data.NewVaultRepo(cfg.Vault.PendingDir(), cfg.Vault.ApprovedDir(), cfg.Vault.DoneDir())
	capture := usecase.NewCaptureUsecase(stateRepo, vaultRepo, auditRepo, cfg.DryRun, logger.With("component", "capture"))

	trigger := channel.NewPostTrigger()
	ctx := context.Background()

	events, err := trigger.FetchNewEvents(ctx)
	if err != nil {
		log.Fatalf("Trigger failed: %v", err)
	}
	for _, ev := range events {
		created, err := capture.ProcessEvent(ctx, trigger, ev)
		if err != nil {
			log.Fatalf("Trigger failed: %v", err)
		}
		if created {
			logger.Info("post trigger created", "key", ev.Key)
		} else {
			logger.Info("post trigger already present", "key", ev.Key)
		}
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
