package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"MaturityBoard/internal/advisor"
	"MaturityBoard/internal/config"
	"MaturityBoard/internal/graceful"
	"MaturityBoard/internal/httpserver"
	"MaturityBoard/internal/repositories"
	"MaturityBoard/internal/scoring"
	"MaturityBoard/internal/telegram"
	"MaturityBoard/internal/templates"
	"MaturityBoard/internal/utils/logger/sl"
	"MaturityBoard/internal/utils/logger/slogpretty"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

var Version = "0.1"

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info(
		"starting maturity board",
		slog.String("env", cfg.Env),
		slog.String("version", Version),
	)

	repositoryService := repositories.New(log, cfg)
	templatesService := templates.New(log, repositoryService)
	if cfg.Templates.SeedOnStart {
		if res, err := templatesService.Seed(context.Background()); err != nil {
			log.Error("error seeding templates", sl.Err(err))
		} else {
			log.Info("templates seeded",
				slog.Int("created", len(res.Created)),
				slog.Int("skipped", len(res.Skipped)))
		}
	}

	scoringService := scoring.New(log, repositoryService, nil,
		scoring.ParseTrendPolicy(cfg.Scoring.TrendPolicy))

	deps := httpserver.Deps{
		Directory:   repositoryService,
		Templates:   templatesService,
		Scoring:     scoringService,
		APITokens:   cfg.HttpServer.APITokens,
		AdminTokens: cfg.HttpServer.AdminTokens,
	}
	if adv := advisor.New(log, cfg.Advisor); adv != nil {
		deps.Advisor = adv
		log.Info("advisor enabled", slog.String("model", cfg.Advisor.Model))
	}
	httpServer := httpserver.New(log, cfg.HttpServer, httpserver.NewRouter(log, deps))

	var tgBot *telegram.Bot
	if cfg.BotConfig.Enabled() {
		tgBot = telegram.New(log, cfg.BotConfig, repositoryService, scoringService)
	}

	// Everything that reads the database stops before the pool closes.
	stop := []graceful.Operation{httpServer.Shutdown, scoringService.Flush}
	if tgBot != nil {
		scoringService.SetNotifier(tgBot)
		stop = append(stop, tgBot.Shutdown)
	}
	stop = append(stop, repositoryService.Shutdown)

	ops := map[string]graceful.Operation{
		"HTTP server, bot and repository": graceful.Sequence(stop...),
	}

	maxSecond := 15 * time.Second
	waitShutdown := graceful.GracefulShutdown(
		context.Background(),
		maxSecond,
		ops,
		log,
	)

	go httpServer.Start()
	if tgBot != nil {
		go tgBot.Start()
	}

	<-waitShutdown
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog(slog.LevelDebug)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = setupPrettySlog(slog.LevelInfo)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog(level slog.Level) *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: level,
		},
	}
	handler := opts.NewPrettyHandler(os.Stdout)
	return slog.New(handler)
}
