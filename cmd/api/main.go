package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/stayhub/service-desk/internal/api/http"
	"github.com/stayhub/service-desk/internal/api/http/handlers"
	"github.com/stayhub/service-desk/internal/auth"
	"github.com/stayhub/service-desk/internal/config"
	"github.com/stayhub/service-desk/internal/events"
	"github.com/stayhub/service-desk/internal/observability"
	"github.com/stayhub/service-desk/internal/persistence"
	"github.com/stayhub/service-desk/internal/realtime"
	"github.com/stayhub/service-desk/internal/repository"
	"github.com/stayhub/service-desk/internal/service"
	"github.com/stayhub/service-desk/internal/ticketnumber"
	"github.com/stayhub/service-desk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var redis *persistence.Redis
	if cfg.Redis.Enabled() {
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewTicketCommentRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	numbers := ticketnumber.NewAllocator(ticketnumber.NewPGCounterStore(pool), nil)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		CommentRepo: commentRepo,
		HistoryRepo: historyRepo,
		BookingRepo: bookingRepo,
		UserRepo:    userRepo,
		Numbers:     numbers,
		Dispatcher:  dispatcher,
	})

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	// Without Redis the limiter counts attempts in process memory;
	// counters then reset on restart and are not shared across replicas.
	var attempts auth.AttemptStore
	if redis != nil {
		attempts = auth.NewRedisAttemptStore(redis.Client)
	} else {
		attempts = auth.NewMemoryAttemptStore()
		logger.Info("redis disabled; login attempts tracked in memory")
	}
	limiter := auth.NewLoginLimiter(
		attempts,
		auth.LoginLimiterConfig{
			DelayThreshold: int64(cfg.Auth.LoginDelayThreshold),
			LockThreshold:  int64(cfg.Auth.LoginLockThreshold),
			DelayStep:      time.Duration(cfg.Auth.LoginDelayStepSeconds) * time.Second,
			Window:         time.Duration(cfg.Auth.LoginWindowMinutes) * time.Minute,
		},
	)
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
		TokenManager:      tokenManager,
		LoginLimiter:      limiter,
	})
	authMiddleware := auth.NewAuthMiddleware(tokenManager, userRepo)

	metrics := observability.NewMetrics()
	hub := realtime.NewHub(ticketService, metrics, logger)
	relay := realtime.NewServer(realtime.ServerConfig{
		Host:          cfg.Realtime.Host,
		Port:          cfg.Realtime.Port,
		AllowedOrigin: cfg.Realtime.AllowedOrigin,
		BypassToken:   cfg.Realtime.BypassToken,
		SendBuffer:    cfg.Realtime.SendBuffer,
	}, hub, tokenManager, logger)

	notificationService := service.NewNotificationService(hub, logger)
	worker.StartNotificationWorker(notificationService, dispatcher)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Bookings:       handlers.NewBookingsHandler(bookingRepo),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	go func() {
		if err := relay.Start(); err != nil {
			logger.Fatal("relay listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = relay.Shutdown(shutdownCtx)
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
