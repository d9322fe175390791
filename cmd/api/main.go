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

	httptransport "github.com/soportec/triage-service/internal/api/http"
	"github.com/soportec/triage-service/internal/api/http/handlers"
	"github.com/soportec/triage-service/internal/auth"
	"github.com/soportec/triage-service/internal/config"
	"github.com/soportec/triage-service/internal/events"
	"github.com/soportec/triage-service/internal/observability"
	"github.com/soportec/triage-service/internal/persistence"
	"github.com/soportec/triage-service/internal/repository"
	"github.com/soportec/triage-service/internal/service"
	"github.com/soportec/triage-service/internal/worker"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	technicianRepo := repository.NewTechnicianRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	slaRepo := repository.NewSLARepository(pool)
	historyRepo := repository.NewStatusHistoryRepository(pool)
	resultRepo := repository.NewAssignmentResultRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(cfg.Auth, technicianRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		TechnicianRepo: technicianRepo,
		CategoryRepo:   categoryRepo,
		SLARepo:        slaRepo,
		HistoryRepo:    historyRepo,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:     ticketRepo,
		TechnicianRepo: technicianRepo,
		CategoryRepo:   categoryRepo,
		SLARepo:        slaRepo,
		HistoryRepo:    historyRepo,
		ResultRepo:     resultRepo,
		Locker:         redis,
		Counter:        redis,
		Dispatcher:     dispatcher,
		Logger:         logger,
		LockTTL:        cfg.Triage.BatchLockTTL(),
		StatsWindow:    time.Duration(cfg.Triage.StatsWindowHours) * time.Hour,
	})
	statsService := service.NewStatsService(ticketRepo, redis, cfg.Triage.StatsWindowHours)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), technicianRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Triage:         handlers.NewTriageHandler(assignmentService, statsService, metrics),
		Technicians:    handlers.NewTechniciansHandler(technicianRepo, cfg.Auth.BcryptCost),
		Catalog:        handlers.NewCatalogHandler(categoryRepo, slaRepo),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
