package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookline/internal/booking"
	"bookline/internal/calendar"
	"bookline/internal/config"
	"bookline/internal/flow"
	"bookline/internal/normalize"
	"bookline/internal/profile"
	"bookline/internal/session"
	"bookline/internal/telephony"
	"bookline/migrations"
	"bookline/pkg/logger"
	"bookline/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"
)

const (
	voicePath   = "/webhooks/twilio/voice"
	collectPath = "/webhooks/twilio/collect"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	loc, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		log.Error("timezone load failed", "tz", cfg.Booking.Timezone, "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Up(rootCtx, db); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	// Redis being down at startup is not fatal: sessions degrade to
	// in-process storage per operation and recover when redis does.
	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Warn("redis unavailable, sessions degrade to memory", "err", err)
	}
	if rdb == nil {
		log.Error("redis client init failed", "addr", cfg.RedisAddr())
		os.Exit(1)
	}
	defer rdb.Close()

	memSessions := session.NewMemoryStore(cfg.Booking.SessionTTL)
	sessions := session.NewRedisStore(rdb, cfg.Booking.SessionTTL, memSessions, log)
	profiles := profile.NewRedisStore(rdb, cfg.Booking.ProfileTTL)

	// Janitor for sessions accumulated while degraded.
	janitor := cron.New()
	if _, err := janitor.AddFunc("@every 1m", memSessions.Sweep); err != nil {
		log.Error("janitor schedule failed", "err", err)
		os.Exit(1)
	}
	janitor.Start()
	defer janitor.Stop()

	var normOpts []normalize.Option
	if cfg.OpenAI.APIKey != "" {
		normOpts = append(normOpts, normalize.WithTimeResolver(
			normalize.NewOpenAITimeResolver(cfg.OpenAI.APIKey, cfg.OpenAI.Model)))
	}
	norm := normalize.New(cfg.Booking.Region, loc, cfg.Booking.StrategyBudget, normOpts...)

	var calClient calendar.Client
	if cfg.Calendar.BaseURL != "" {
		c, err := calendar.NewHTTPClient(calendar.HTTPClientConfig{
			BaseURL:       cfg.Calendar.BaseURL,
			CalendarID:    cfg.Calendar.CalendarID,
			ClientEmail:   cfg.Calendar.ClientEmail,
			PrivateKeyPEM: cfg.Calendar.PrivateKeyPEM,
			Timeout:       cfg.Calendar.HTTPTimeout,
		})
		if err != nil {
			log.Error("calendar client init failed, continuing without calendar", "err", err)
		} else {
			calClient = c
		}
	}
	advisor := calendar.NewAdvisor(calClient, cfg.Booking.OpenHour, cfg.Booking.CloseHour, loc, log)

	repo := booking.NewSQLRepository(db)
	var events booking.EventCreator
	if calClient != nil {
		events = calClient
	}
	booker := booking.NewService(repo, events, profiles, cfg.Booking.SlotToleranceMin, loc, log)

	engine := flow.NewEngine(flow.Config{
		Sessions:   sessions,
		Profiles:   profiles,
		Normalizer: norm,
		Advisor:    advisor,
		Booker:     booker,
		OpenHour:   cfg.Booking.OpenHour,
		CloseHour:  cfg.Booking.CloseHour,
		Location:   loc,
		TurnBudget: cfg.Booking.TurnBudget,
		Log:        log,
	})

	render := telephony.NewRenderer(cfg.Twilio.Voice, cfg.Twilio.Locale, collectPath, cfg.Twilio.GatherTimeoutSec, log)
	webhook := telephony.WebhookHandler{Engine: engine, Render: render}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	registerRoutes(r, webhook, db, memSessions)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
