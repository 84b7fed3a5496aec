// Package lifecycle implements the bootstrap and graceful-shutdown protocol:
// connect every backing collaborator in a fixed order, verify the target
// stream exists before committing to it, and tear everything down in
// reverse on shutdown.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/email4-dev/mailer/internal/config"
	"github.com/email4-dev/mailer/internal/consumer"
	"github.com/email4-dev/mailer/internal/executor"
	"github.com/email4-dev/mailer/internal/health"
	"github.com/email4-dev/mailer/internal/mode"
	"github.com/email4-dev/mailer/internal/reaper"
	"github.com/email4-dev/mailer/internal/retry"
	"github.com/email4-dev/mailer/internal/sidestate"
	"github.com/email4-dev/mailer/pkg/formstore"
	"github.com/email4-dev/mailer/pkg/logger"
	"github.com/email4-dev/mailer/pkg/mailer"
	"github.com/email4-dev/mailer/pkg/objectstore"
	"github.com/email4-dev/mailer/pkg/renderer"
	"github.com/redis/go-redis/v9"
)

// System holds every long-lived collaborator wired together, ready to be
// handed to a consumer.Loop.
type System struct {
	blockingClient *redis.Client
	commandClient  *redis.Client

	SideState *sidestate.Store
	Forms     *formstore.Client
	Objects   *objectstore.Store
	Mail      *mailer.Gateway
	Render    *renderer.Renderer
	Reaper    *reaper.Reaper
	Executor  *executor.Executor
	Health    *health.Checker

	log    logger.Logger
	Stream consumer.Config
}

// Bootstrap runs the fixed connection order and returns a ready System, or
// the first bootstrap-fatal error encountered. sel resolves to
// the same stream/group bindings the returned System.Stream carries, so the
// caller can hand System.Stream straight to consumer.New without re-deriving
// it.
func Bootstrap(ctx context.Context, cfg *config.Config, log logger.Logger, sel mode.Selector) (*System, error) {
	streamCfg := sel.Resolve()
	consumerGroup := streamCfg.ConsumerGroup
	stream := streamCfg.Stream

	blockingClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err := blockingClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect blocking-read side-state connection: %w", err)
	}

	commandClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err := commandClient.Ping(ctx).Err(); err != nil {
		blockingClient.Close()
		return nil, fmt.Errorf("failed to connect command side-state connection: %w", err)
	}
	sideState := sidestate.New(commandClient, consumerGroup)

	forms, err := formstore.New(ctx, formstore.Config{URL: cfg.FormStore.URL, Email: cfg.FormStore.Email, Password: cfg.FormStore.Password})
	if err != nil {
		blockingClient.Close()
		commandClient.Close()
		return nil, fmt.Errorf("failed to connect form metadata store: %w", err)
	}

	objects, err := objectstore.New(ctx, objectstore.Config{
		Endpoint:  cfg.ObjectStore.Endpoint,
		Bucket:    cfg.ObjectStore.Bucket,
		AccessKey: cfg.ObjectStore.AccessKey,
		SecretKey: cfg.ObjectStore.SecretKey,
		Region:    cfg.ObjectStore.Region,
		UseSSL:    cfg.ObjectStore.UseSSL,
	})
	if err != nil {
		blockingClient.Close()
		commandClient.Close()
		return nil, fmt.Errorf("failed to connect object store: %w", err)
	}

	mailGateway, err := mailer.NewGateway(mailer.Config{
		Hostname:   cfg.SMTP.Hostname,
		Port:       cfg.SMTP.Port,
		Security:   cfg.SMTP.Security,
		Auth:       cfg.SMTP.Auth,
		Username:   cfg.SMTP.Username,
		Password:   cfg.SMTP.Password,
		PrivateKey: cfg.SMTP.PrivateKey,
		AccessURL:  cfg.SMTP.AccessURL,
		Pool:       cfg.SMTP.Pool,
	}, log)
	if err != nil {
		blockingClient.Close()
		commandClient.Close()
		return nil, fmt.Errorf("failed to initialize SMTP transport: %w", err)
	}

	exists, err := commandClient.Exists(ctx, stream).Result()
	if err != nil {
		blockingClient.Close()
		commandClient.Close()
		return nil, fmt.Errorf("failed to verify target stream %s exists: %w", stream, err)
	}
	if exists == 0 {
		blockingClient.Close()
		commandClient.Close()
		return nil, fmt.Errorf("target stream %s does not exist", stream)
	}

	render := renderer.New(forms)
	reap := &reaper.Reaper{SideState: sideState, Objects: objects, Log: log}
	exec := &executor.Executor{
		Forms:      forms,
		Renderer:   render,
		Sender:     mailGateway,
		SideState:  sideState,
		Reaper:     reap,
		Scheduler:  retry.Scheduler{BaseIntervalMinutes: cfg.RetryInterval, MaxRetries: cfg.MailerRetries},
		Log:        log,
		APIBaseURL: cfg.APIURL,
	}

	return &System{
		blockingClient: blockingClient,
		commandClient:  commandClient,
		SideState:      sideState,
		Forms:          forms,
		Objects:        objects,
		Mail:           mailGateway,
		Render:         render,
		Reaper:         reap,
		Executor:       exec,
		Health:         &health.Checker{SideState: sideState, ObjectStore: objects, FormStore: forms},
		log:            log,
		Stream:         streamCfg,
	}, nil
}

// BlockingClient is the dedicated connection the Consumer Loop issues its
// XReadGroup calls on, kept separate from the command connection.
func (s *System) BlockingClient() *redis.Client { return s.blockingClient }

// NewLoop builds the consumer.Loop for this System's resolved mode, wired
// to the dedicated blocking connection and every collaborator Bootstrap
// already connected.
func (s *System) NewLoop(sched retry.Scheduler) *consumer.Loop {
	return consumer.New(s.blockingClient, s.SideState, s.Reaper, s.Executor, sched, s.log, s.Stream)
}

// Shutdown runs teardown in order: close the SMTP transport, clear
// authentication materials, disconnect both side-state connections, then
// return. A side-state disconnect failure is reported but does not prevent
// the rest of teardown from running.
func (s *System) Shutdown(ctx context.Context) error {
	if err := s.Mail.Close(); err != nil {
		s.log.WithField("error", err.Error()).Warn("failed to close SMTP transport cleanly")
	}

	s.Forms.ClearAuth()

	var firstErr error
	if err := s.blockingClient.Close(); err != nil {
		firstErr = fmt.Errorf("failed to close blocking side-state connection: %w", err)
	}
	if err := s.commandClient.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close command side-state connection: %w", err)
	}
	return firstErr
}
