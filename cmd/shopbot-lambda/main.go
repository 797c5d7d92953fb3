package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/m3rciful/shopbot/core/logger"
	tg "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/internal/app"
	"github.com/m3rciful/shopbot/internal/webhook"
)

func main() {
	ctx := context.Background()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := app.Load(path)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if err := logger.InitLogger(cfg.CoreConfig()); err != nil {
		slog.Error("failed to init logger", "err", err)
		os.Exit(1)
	}

	a, err := app.Build(ctx, cfg, app.Options{})
	if err != nil {
		slog.Error("failed to build app", "err", err)
		os.Exit(1)
	}
	runOpts, err := a.TelegramRunOptions()
	if err != nil {
		slog.Error("failed to build telegram options", "err", err)
		os.Exit(1)
	}
	// updates arrive through API Gateway, one invocation at a time
	runOpts.Offline = true
	rt, err := tg.Compose(ctx, runOpts)
	if err != nil {
		slog.Error("failed to compose bot", "err", err)
		os.Exit(1)
	}

	h, err := webhook.New(rt.Bot, cfg.Webhook.SecretToken, rt.Dispatcher)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}
	lambda.Start(h.Handle)
}
