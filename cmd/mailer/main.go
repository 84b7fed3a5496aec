// Command mailer runs the stream-consumption worker: a single binary that,
// depending on the --retrier flag, either drains the primary message stream
// or the retry stream, driving every entry through the attempt/retry state
// machine until delivered or dead-lettered.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/email4-dev/mailer/internal/config"
	"github.com/email4-dev/mailer/internal/health"
	"github.com/email4-dev/mailer/internal/lifecycle"
	"github.com/email4-dev/mailer/internal/mode"
	"github.com/email4-dev/mailer/internal/retry"
	"github.com/email4-dev/mailer/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	retrier := flag.Bool("retrier", false, "run in retry mode, consuming retry_queue instead of messages")
	healthcheck := flag.Bool("healthcheck", false, "connect to every backing store, report health, and exit")
	flag.Parse()

	cfg, err := config.Load(*retrier)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	log := logger.NewLoggerWithLevel("info")
	if cfg.Debug {
		log = logger.NewLoggerWithLevel("debug")
	}

	sel := mode.Selector{
		Retrier:              cfg.Retrier,
		BatchSize:            int64(cfg.ConsumerBatchSize),
		BlockFor:             time.Duration(cfg.ConsumerBlock) * time.Second,
		MaxConcurrentRetries: 100,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sys, err := lifecycle.Bootstrap(ctx, cfg, log, sel)
	if err != nil {
		log.WithField("error", err.Error()).Error("bootstrap failed")
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := sys.Shutdown(shutdownCtx); err != nil {
			log.WithField("error", err.Error()).Error("shutdown encountered errors")
		}
	}()

	if *healthcheck {
		reports := sys.Health.Check(ctx)
		if err := health.Healthy(reports); err != nil {
			log.WithField("error", err.Error()).Error("health check failed")
			return 1
		}
		log.Info("all backing connections healthy")
		return 0
	}

	sched := retry.Scheduler{BaseIntervalMinutes: cfg.RetryInterval, MaxRetries: cfg.MailerRetries}
	loop := sys.NewLoop(sched)

	log.WithField("mode", sel.Retrier).WithField("stream", loop.Cfg.Stream).Info("starting consumer loop")
	if err := loop.Run(ctx); err != nil {
		log.WithField("error", err.Error()).Error("consumer loop exited with error")
		return 1
	}
	return 0
}
