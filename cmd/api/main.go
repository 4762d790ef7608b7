// @title                       Storefront API
// @version                     1.0
// @description                 Users, two-step login, products, categories and tasks behind a policy gate.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
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

	"github.com/rs/zerolog"

	"github.com/storefront/storefront-api/internal/api"
	"github.com/storefront/storefront-api/internal/api/handler"
	"github.com/storefront/storefront-api/internal/core/policy"
	"github.com/storefront/storefront-api/internal/core/ports"
	"github.com/storefront/storefront-api/internal/core/service"
	"github.com/storefront/storefront-api/internal/infrastructure/db/mongo"
	"github.com/storefront/storefront-api/internal/infrastructure/db/redis"
	"github.com/storefront/storefront-api/internal/infrastructure/jobs"
	"github.com/storefront/storefront-api/internal/infrastructure/notify"
	"github.com/storefront/storefront-api/internal/infrastructure/queue"
	"github.com/storefront/storefront-api/internal/pkg/config"
	"github.com/storefront/storefront-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "storefront-api",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	health := map[string]handler.Pinger{
		"mongodb": handler.PingFunc(func(ctx context.Context) error { return client.Ping(ctx, nil) }),
		"redis":   nil,
	}

	// Redis only backs attempt throttling; without it code checks are
	// unthrottled rather than unavailable.
	var limiter ports.AttemptLimiter
	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, code attempts are not throttled")
	} else {
		defer rdb.Close()
		limiter = redis.NewAttemptLimiter(rdb, cfg.Auth.MaxCodeAttempts, cfg.Auth.CodeAttemptWindow)
		health["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	sender, closeSender, err := buildSender(cfg.Notify, log)
	if err != nil {
		return err
	}
	defer closeSender()

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Notify.Workers, sender, log)
	dispatcher.Start(workerCtx)
	defer func() {
		cancelWorkers()
		dispatcher.Wait()
	}()

	users := mongo.NewUserRepository(db)
	tokens := service.NewJWTService(cfg.JWTSecret)
	hasher := service.NewPasswordHasher(cfg.Auth.BcryptCost, cfg.Auth.HashConcurrency)
	auth := service.NewAuthService(users, tokens, hasher, dispatcher, limiter, service.AuthConfig{
		AccessTTL:            cfg.Auth.AccessTTL,
		RefreshTTL:           cfg.Auth.RefreshTTL,
		EmailVerificationTTL: cfg.Auth.EmailVerificationTTL,
		VerificationCodeTTL:  cfg.Auth.VerificationCodeTTL,
		LoginCodeTTL:         cfg.Auth.LoginCodeTTL,
		VerifyURL:            cfg.Auth.VerifyEmailURL,
	}, log)

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		created, err := auth.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Phone, cfg.Admin.Password)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			log.Info().Str("email", cfg.Admin.Email).Msg("admin account created")
		}
	}

	sweeper, err := jobs.NewSweeper(users, cfg.Jobs.SweepSchedule, log)
	if err != nil {
		return fmt.Errorf("schedule login code sweep: %w", err)
	}
	sweeper.Start()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		sweeper.Stop(sctx)
	}()

	e := api.NewRouter(api.Deps{
		Auth:       auth,
		Users:      service.NewUserService(users, log),
		Products:   service.NewProductService(mongo.NewProductRepository(db), log),
		Categories: service.NewCategoryService(mongo.NewCategoryRepository(db), log),
		Tasks:      service.NewTaskService(mongo.NewTaskRepository(db), log),
		Tokens:     tokens,
		Abilities:  policy.NewFactory(nil),
		Health:     health,
		Log:        log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}

// buildSender wires the configured transport for each channel behind a
// notify.Router. The returned func releases transport connections.
func buildSender(cfg config.NotifyConfig, log zerolog.Logger) (ports.Sender, func(), error) {
	var amqpSender *notify.AMQPSender
	amqp := func() *notify.AMQPSender {
		if amqpSender == nil {
			amqpSender = notify.NewAMQPSender(cfg.AMQPURL, cfg.QueuePrefix)
		}
		return amqpSender
	}
	logSender := notify.NewLogSender(log)

	var email ports.Sender
	switch cfg.EmailTransport {
	case "log", "":
		email = logSender
	case "amqp":
		email = amqp()
	case "smtp":
		smtpSender, err := notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			TLS:      cfg.SMTPTLS,
		})
		if err != nil {
			return nil, nil, err
		}
		email = smtpSender
	default:
		return nil, nil, fmt.Errorf("unknown email transport %q", cfg.EmailTransport)
	}

	var sms ports.Sender
	switch cfg.SMSTransport {
	case "log", "":
		sms = logSender
	case "amqp":
		sms = amqp()
	case "twilio":
		twilioSender, err := notify.NewTwilioSender(notify.TwilioConfig{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			From:       cfg.TwilioFrom,
		})
		if err != nil {
			return nil, nil, err
		}
		sms = twilioSender
	default:
		return nil, nil, fmt.Errorf("unknown sms transport %q", cfg.SMSTransport)
	}

	closer := func() {
		if amqpSender != nil {
			if err := amqpSender.Close(); err != nil {
				log.Warn().Err(err).Msg("close amqp sender")
			}
		}
	}
	return notify.NewRouter(email, sms), closer, nil
}
