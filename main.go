package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	config "warden/app/configs"
	"warden/app/core/interaction/discord"
	"warden/app/core/interaction/gateway"
	"warden/app/core/interaction/health"
	"warden/app/core/orchestrator/admin"
	"warden/app/core/orchestrator/bot"
	"warden/app/core/orchestrator/confirm"
	"warden/app/core/orchestrator/convo"
	"warden/app/core/orchestrator/engine"
	"warden/app/core/queue"
	"warden/app/pkg/logger"
	"warden/app/pkg/types"
)

func main() {
	_ = godotenv.Load()

	if err := logger.Init("output/logs"); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger.Info("Warden starting...")

	cfgManager, err := config.NewManager(config.DefaultPath())
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}
	cfg := cfgManager.Get()

	botToken := os.Getenv("DISCORD_BOT_TOKEN")
	if botToken == "" {
		logger.Error("DISCORD_BOT_TOKEN is required")
		os.Exit(1)
	}

	channel, err := discord.NewChannel(discord.Config{BotToken: botToken})
	if err != nil {
		logger.Error("Failed to create discord channel: %v", err)
		os.Exit(1)
	}
	if err := channel.Connect(); err != nil {
		logger.Error("Failed to connect to discord: %v", err)
		os.Exit(1)
	}

	var completer types.Completer
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		completer = engine.NewOpenAICompleter(engine.OpenAIConfig{
			APIKey:          apiKey,
			Model:           cfg.Model.Name,
			Temperature:     cfg.Model.Temperature,
			MaxOutputTokens: cfg.Model.MaxOutputTokens,
			Timeout:         time.Duration(cfg.Model.TimeoutSec) * time.Second,
		})
	} else {
		logger.Error("OPENAI_API_KEY is not set; the bot will stay silent")
	}

	registry := admin.NewRegistry()
	env := admin.Env{
		Moderator:        channel,
		Store:            channel,
		MuteDuration:     time.Duration(cfg.Admin.MuteMinutes) * time.Minute,
		BulkDeleteLimit:  cfg.Admin.BulkDeleteLimit,
		BulkDeleteMaxAge: time.Duration(cfg.Admin.BulkDeleteMaxAgeHours) * time.Hour,
	}

	builder := convo.NewBuilder(channel, channel.BotUser().ID, cfg.Context.HistoryLimit)
	eng := engine.New(completer, registry, cfg.Agent.Name)
	warden := bot.New(cfg.Agent.Name, builder, eng, channel, registry)
	confirmer := confirm.NewHandler(registry, env)

	gw := gateway.New(warden, confirmer)
	gw.RegisterChannel(channel)

	if tracer, err := gateway.NewTraceRecorder("output/trace"); err != nil {
		logger.Error("Failed to initialize trace recorder: %v", err)
	} else {
		gw.SetTraceRecorder(tracer)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatchQueue := queue.New(cfg.Queue.Buffer)
	if err := dispatchQueue.Start(ctx, cfg.Queue.Workers); err != nil {
		logger.Error("Failed to start dispatch queue: %v", err)
		os.Exit(1)
	}
	gw.SetDispatchQueue(dispatchQueue, gateway.QueueOptions{
		Enabled:        true,
		EnqueueTimeout: time.Duration(cfg.Queue.EnqueueTimeoutSec) * time.Second,
		AttemptTimeout: time.Duration(cfg.Queue.AttemptTimeoutSec) * time.Second,
	})
	defer func() {
		if err := dispatchQueue.Stop(5 * time.Second); err != nil {
			logger.Error("Dispatch queue shutdown timeout: %v", err)
		}
	}()

	healthServer := health.NewServer(cfg.Health.Port)
	healthServer.SetStatusProvider(func(context.Context) map[string]interface{} {
		status := gw.HealthStatus()
		return map[string]interface{}{
			"bot":                status.BotName,
			"channels":           status.RegisteredChannels,
			"processed_messages": status.ProcessedMessages,
			"delivered_replies":  status.DeliveredReplies,
			"queue_depth":        status.Queue.Depth,
		}
	})
	go func() {
		if err := healthServer.Start(ctx); err != nil {
			logger.Error("Health server crashed: %v", err)
		}
	}()

	go func() {
		if err := gw.Start(ctx); err != nil {
			logger.Error("Gateway crashed: %v", err)
			os.Exit(1)
		}
	}()

	logger.Info("Warden is ready to serve.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Received signal: %v. Warden shutting down...", sig)
	cancel()
}
