package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pizzaflow/internal/api"
	"pizzaflow/internal/booking"
	"pizzaflow/internal/config"
	"pizzaflow/internal/database"
	"pizzaflow/internal/events"
	"pizzaflow/internal/guard"
	"pizzaflow/internal/metrics"
	"pizzaflow/internal/notify"
	"pizzaflow/internal/snapshot"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	clock, err := restaurantClock(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	bus := events.NewEventBus()
	live := config.NewLive(nil)
	calLogger := logger.With().Str("component", "calendar").Logger()
	err = config.WatchCalendar(ctx, cfg.Calendar.Path, cfg.ReloadInterval(), &calLogger, func(cc *config.CalendarConfig) {
		live.Set(cc)
		if err := db.SyncTables(ctx, cc.Floor()); err != nil {
			calLogger.Error().Err(err).Msg("failed to sync tables")
		}
		_ = bus.Publish(events.Event{Type: events.CalendarReloaded})
		_ = bus.Publish(events.Event{Type: events.TablesChanged})
	})
	if err != nil {
		return fmt.Errorf("load calendar: %w", err)
	}

	checks := []api.ReadyCheck{{Name: "db", Check: db.PingContext}}

	var locker *guard.Locker
	guardLogger := logger.With().Str("component", "guard").Logger()
	if cfg.Redis.Address != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		locker = guard.NewRedis(rdb, guard.Options{TTL: cfg.LockTTL()}, &guardLogger)
		checks = append(checks, api.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	} else {
		locker = guard.NewLocal(guard.Options{TTL: cfg.LockTTL()}, &guardLogger)
		logger.Warn().Msg("redis not configured, booking locks are process-local")
	}

	notifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}

	snapLogger := logger.With().Str("component", "snapshot").Logger()
	snap := snapshot.New(db, &snapLogger)
	if err := snap.Refresh(ctx); err != nil {
		return err
	}
	go snap.Run(ctx, bus)
	checks = append(checks, api.ReadyCheck{Name: "snapshot", Check: func(context.Context) error {
		if snap.RefreshedAt().IsZero() {
			return errors.New("snapshot not loaded")
		}
		return nil
	}})

	backupLogger := logger.With().Str("component", "backup").Logger()
	backup := database.NewBackupService(db, cfg.Backup, cfg.BackupInterval(), &backupLogger)
	go backup.Run(ctx)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}
	if cfg.Monitoring.HealthCheckPort > 0 {
		go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, checks, &logger)
	}

	if cfg.PendingReminder.Enabled {
		reminderLogger := logger.With().Str("component", "reminder").Logger()
		reminder := notify.NewPendingReminder(notify.ReminderConfig{
			After:         cfg.ReminderAfter(),
			CheckInterval: cfg.ReminderInterval(),
		}, snap, notifier, clock, &reminderLogger)
		go reminder.Start(ctx)
	}

	bookingLogger := logger.With().Str("component", "booking").Logger()
	svc := booking.NewService(db, live, locker, bus, notifier, clock, &bookingLogger)

	apiLogger := logger.With().Str("component", "api").Logger()
	srv := api.NewHTTPServer(api.Options{
		Address:         cfg.Server.Address,
		StaffAPIKey:     cfg.Server.StaffAPIKey,
		PublicRateLimit: cfg.Server.PublicRateLimit,
		PublicBurst:     cfg.Server.PublicBurst,
	}, svc, snap, live, clock, &apiLogger, checks...)
	srv.SetAuditSource(db)

	logger.Info().Str("locks", locker.Backend()).Str("calendar", cfg.Calendar.Path).Msg("pizzaflow started")
	return srv.Start(ctx)
}

func newNotifier(cfg *config.Config) (booking.Notifier, error) {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		logger.Info().Msg("telegram not configured, manager alerts disabled")
		return notify.Nop{}, nil
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	bot.Debug = cfg.Telegram.Debug
	notifyLogger := logger.With().Str("component", "notify").Logger()
	return notify.NewTelegram(bot, cfg.Managers, &notifyLogger), nil
}

func startHealthServer(ctx context.Context, port int, checks []api.ReadyCheck, logger *zerolog.Logger) {
	serve(ctx, &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: api.HealthHandler(checks...), ReadHeaderTimeout: 5 * time.Second}, "health", logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	serve(ctx, &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}, "metrics", logger)
}

func serve(ctx context.Context, srv *http.Server, name string, logger *zerolog.Logger) {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Str("server", name).Msg("server error")
	}
}
