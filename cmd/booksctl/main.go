package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-books/cmd/booksctl/cli"
	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/app"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
	"github.com/odyssey-erp/odyssey-books/jobs"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	env := cli.Env{
		OpenLedger: func(ctx context.Context) (cli.Ledger, func(), error) {
			pool, err := db.New(ctx, cfg.PGDSN)
			if err != nil {
				return nil, nil, err
			}
			ledger := accounting.NewService(accounting.NewRepository(pool), accounting.NewPoster(logger, nil))
			return ledger, pool.Close, nil
		},
		OpenQueue: func(ctx context.Context) (cli.Queue, func(), error) {
			client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
			if err != nil {
				return nil, nil, err
			}
			return client, func() {
				if err := client.Close(); err != nil {
					logger.Warn("job client close", slog.Any("error", err))
				}
			}, nil
		},
	}

	if err := cli.NewRootCommand(env).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
