package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KotFed0t/fund_portfolio_tracker/config"
	"github.com/KotFed0t/fund_portfolio_tracker/data"
	"github.com/KotFed0t/fund_portfolio_tracker/data/repository/postgres"
	"github.com/KotFed0t/fund_portfolio_tracker/data/session"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/externalApi/quotesApi"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/reportGenerator/xlsxGenerator"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/scheduler"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/service/fundService"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/service/portfolioService"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/service/reportService"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/service/transactionService"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/tgbot"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/transport/telegram"
)

const (
	refreshPricesTimeout  = 2 * time.Minute
	cleanupReportsTimeout = 5 * time.Minute
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.String("logLevel", cfg.LogLevel), slog.String("pgHost", cfg.Postgres.Host))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(cfg, pgClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisSession := session.NewRedisSession(redisClient, cfg.SessionExpiration)

	var quotes fundService.QuotesApi
	if cfg.API.QuotesApi.Url != "" {
		quotes = quotesApi.New(cfg)
	}

	var storage reportService.CloudStorage
	if cfg.GoogleDrive.CredentialsFile != "" {
		storage = googleDriveApi.New(ctx, cfg)
	}

	portfolioSrv := portfolioService.New(pgRepo)
	fundSrv := fundService.New(pgRepo, quotes)
	transactionSrv := transactionService.New(pgRepo)
	reportSrv := reportService.New(portfolioSrv, xlsxGenerator.New(), storage)

	sched := scheduler.New()
	if quotes != nil {
		sched.NewIntervalJob("refresh fund prices", fundSrv.RefreshPrices, cfg.Jobs.RefreshPricesInterval, refreshPricesTimeout, true)
	}
	if storage != nil {
		sched.NewIntervalJob("cleanup old reports", reportSrv.CleanupOldReports, cfg.Jobs.CleanupReportsInterval, cleanupReportsTimeout, false)
	}
	sched.Start()
	defer sched.Stop()

	tgController := telegram.NewController(cfg, portfolioSrv, fundSrv, transactionSrv, reportSrv, redisSession)

	tgBot := tgbot.New(cfg, tgController, redisSession)
	tgBot.Start()
	defer tgBot.Stop()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
