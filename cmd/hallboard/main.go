package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Spok95/hallboard/internal/app"
	"github.com/Spok95/hallboard/internal/backend"
	"github.com/Spok95/hallboard/internal/banner"
	"github.com/Spok95/hallboard/internal/config"
	"github.com/Spok95/hallboard/internal/ctxutil"
	"github.com/Spok95/hallboard/internal/fleet"
	"github.com/Spok95/hallboard/internal/jobs"
	"github.com/Spok95/hallboard/internal/logging"
	"github.com/Spok95/hallboard/internal/observability"
	"github.com/Spok95/hallboard/internal/session"
	"github.com/Spok95/hallboard/internal/students"
	"github.com/Spok95/hallboard/internal/tg"
	"github.com/Spok95/hallboard/internal/tracker"
)

var (
	release      = "dev"
	errRedisDown = errors.New("ping failed")
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Closer()
	logger := lg.Base

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, release)
	if err != nil {
		logger.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctxutil.DefaultBackendTimeout = cfg.BackendTimeout
	trackerAPI := backend.New("tracker", cfg.TrackerURL, cfg.BackendTimeout, logger)
	fleetAPI := backend.New("fleet", cfg.FleetURL, cfg.BackendTimeout, logger)
	studentsAPI := backend.New("students", cfg.StudentsURL, cfg.BackendTimeout, logger)
	geoAPI := backend.New("geocoder", cfg.GeocoderURL, cfg.BackendTimeout, logger)

	var (
		store  session.TokenStore
		health []app.HealthCheck
	)
	switch cfg.TokenStore {
	case "redis":
		rs := session.NewRedisStore(session.NewRedisClient(cfg.RedisAddr), cfg.RedisKey)
		store = rs
		health = append(health, app.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			if !rs.Healthy(ctx) {
				return errRedisDown
			}
			return nil
		}})
	default:
		store = session.NewFileStore(cfg.TokenFile)
	}

	sess := session.New(fleetAPI, store, logger)
	loadCtx, cancel := ctxutil.WithBackendTimeout(ctx, 0)
	if err := sess.Load(loadCtx); err != nil {
		logger.Warn("restore session failed, starting logged out", zap.Error(err))
	}
	cancel()

	board := banner.NewBoard(cfg.BannerTTL)
	frames := tracker.NewStore()
	poller := tracker.NewPoller(tracker.NewSheetFeed(trackerAPI), frames, cfg.PollInterval, logger)

	notifier, err := tg.NewNotifier(cfg.TelegramToken, cfg.AdminIDs, logger)
	if err != nil {
		logger.Warn("telegram delivery disabled", zap.Error(err))
		notifier, _ = tg.NewNotifier("", nil, logger)
	}

	hub := app.NewHub(frames, logger)
	h := app.NewHandlers(app.Deps{
		Session:  sess,
		Students: students.NewService(studentsAPI, board, logger),
		Fleet: fleet.NewService(fleetAPI, fleet.Options{
			Geocoder:          fleet.NewNominatim(geoAPI, "hallboard/"+release),
			Tokens:            sess,
			RegisterWithToken: cfg.RegisterWithToken,
			JitterFactor:      cfg.JitterFactor,
			Log:               logger,
		}),
		Poller:   poller,
		Frames:   frames,
		Hub:      hub,
		Board:    board,
		Notifier: notifier,
		Health:   health,
		Location: cfg.Location,
		Log:      logger,
	})

	runner := jobs.New(ctx, logger)
	hub.Start(ctx)
	poller.Start(runner)
	srv := app.StartHTTP(ctx, cfg.HTTPAddr, app.NewRouter(h), logger)

	logger.Info("hallboard started",
		zap.String("env", cfg.Env),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.String("token_store", cfg.TokenStore),
		zap.Bool("telegram", notifier.Enabled()),
	)

	<-ctx.Done()
	logger.Info("shutting down")
	<-srv.Done()
	runner.Wait()
}
