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

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-books/internal/app"
	"github.com/odyssey-erp/odyssey-books/internal/ar"
	"github.com/odyssey-erp/odyssey-books/internal/documents"
	"github.com/odyssey-erp/odyssey-books/internal/masterdata"
	"github.com/odyssey-erp/odyssey-books/internal/masterdata/taxes"
	"github.com/odyssey-erp/odyssey-books/internal/membership"
	"github.com/odyssey-erp/odyssey-books/internal/observability"
	"github.com/odyssey-erp/odyssey-books/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
	"github.com/odyssey-erp/odyssey-books/internal/procurement"
	"github.com/odyssey-erp/odyssey-books/internal/sales"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
	"github.com/odyssey-erp/odyssey-books/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	validate := validator.New()

	ledgerRepo := accounting.NewRepository(pool)
	poster := accounting.NewPoster(logger, metrics)
	ledger := accounting.NewService(ledgerRepo, poster)

	accountService := accounts.NewService(accounts.NewRepository(pool))
	defaults := mappings.NewStore(mappings.NewRepository(pool), redisClient, cfg.MappingCacheTTL, logger)
	parties := masterdata.NewRepository(pool)
	history := shared.NewHistoryRecorder(pool)

	provisioner := taxes.NewProvisioner(taxes.DefaultCatalogue(), poster, logger)
	taxService := taxes.NewService(taxes.NewRepository(pool), provisioner, redisClient, defaults, logger)

	procurementService := procurement.NewService(procurement.NewRepository(pool), parties, metrics, logger)

	salesRepo := sales.NewRepository(pool)
	salesService := sales.NewService(sales.Deps{
		Repo:     salesRepo,
		Reader:   parties,
		Defaults: defaults,
		Accounts: accountService,
		Poster:   poster,
		History:  history,
		Observer: metrics,
		Logger:   logger,
	})

	receiptService := ar.NewService(ar.Deps{
		Repo:     ar.NewRepository(pool),
		Parties:  parties,
		Accounts: accountService,
		Poster:   poster,
		History:  history,
		Observer: metrics,
		Logger:   logger,
	})

	planService := membership.NewService(membership.NewRepository(pool), metrics, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		Metrics:     metrics,
		Idempotency: shared.NewIdempotencyStore(pool),
		Readiness: map[string]app.Pinger{
			"postgres": pool,
			"redis": app.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}),
		},
		AccountingHandler:  accounting.NewHandler(logger, ledger),
		AccountsHandler:    accounts.NewHandler(logger, accountService),
		TaxesHandler:       taxes.NewHandler(logger, taxService, validate),
		ProcurementHandler: procurement.NewHandler(logger, procurementService, validate),
		SalesHandler:       sales.NewHandler(logger, salesService, ledger, validate),
		ARHandler:          ar.NewHandler(logger, receiptService, ledger, validate),
		MembershipHandler:  membership.NewHandler(logger, planService, validate),
		DocumentsHandler:   documents.NewHandler(metrics),
		JobHandler:         jobs.NewHandler(inspector, jobClient, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
