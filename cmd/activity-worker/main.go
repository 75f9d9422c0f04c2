package main

import (
	"context"
	"os"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cli"
	"expensetracker/internal/log"
	"expensetracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), "activity-worker")
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, "activity-worker")

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the activity worker")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func(context.Context) {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	})

	logger.Info("Starting activity worker",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"summary_interval", cfg.ActivitySummaryInterval)

	w := worker.NewActivityWorker(logger, cfg.ActivitySummaryInterval)
	if err := w.Run(ctx, client); err != nil {
		logger.Error("Activity consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Activity worker stopped")
}
