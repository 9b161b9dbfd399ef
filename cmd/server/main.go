package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/userlink/userlink-server/internal/bootstrap"
	"github.com/userlink/userlink-server/internal/config"
	mq "github.com/userlink/userlink-server/internal/infra/queue"
	"github.com/userlink/userlink-server/internal/infra/store"
	"github.com/userlink/userlink-server/internal/modules/handler"
	"github.com/userlink/userlink-server/internal/realtime"
	"github.com/userlink/userlink-server/internal/router"
	"github.com/userlink/userlink-server/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

//	@title						Userlink API
//	@version					1.0
//	@description				Users, assistants, chat threads, messages and files with cascading deletes.
//	@BasePath					/api
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	inj := bootstrap.BuildContainer()
	cfg := do.MustInvoke[*config.Config](inj)
	log := do.MustInvoke[*zap.Logger](inj)
	defer func() { _ = log.Sync() }()

	if err := run(inj, cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(inj *do.Injector, cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := telemetry.SetupTracing(cfg); err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	}
	if _, err := telemetry.SetupMetrics(cfg); err != nil {
		log.Warn("metrics disabled", zap.Error(err))
	}
	if err := telemetry.InitCascadeMetrics(); err != nil {
		log.Warn("cascade metrics", zap.Error(err))
	}

	s, err := do.Invoke[store.Store](inj)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	relay, err := do.Invoke[*realtime.Relay](inj)
	if err != nil {
		return fmt.Errorf("realtime: %w", err)
	}
	if err := relay.Start(ctx); err != nil {
		return fmt.Errorf("start realtime relay: %w", err)
	}

	engine := router.NewRouter(router.RouterDeps{
		Config:            cfg,
		Log:               log,
		UserHandler:       do.MustInvoke[*handler.UserHandler](inj),
		AssistantHandler:  do.MustInvoke[*handler.AssistantHandler](inj),
		ChatThreadHandler: do.MustInvoke[*handler.ChatThreadHandler](inj),
		MessageHandler:    do.MustInvoke[*handler.MessageHandler](inj),
		FileHandler:       do.MustInvoke[*handler.FileHandler](inj),
		RealtimeHandler:   do.MustInvoke[*handler.RealtimeHandler](inj),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		// realtime streams end with the signal context
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(sctx)
		closeInfra(sctx, inj, s, log)
		return err
	})
	return g.Wait()
}

func closeInfra(ctx context.Context, inj *do.Injector, s store.Store, log *zap.Logger) {
	if err := s.Close(ctx); err != nil {
		log.Warn("close store", zap.Error(err))
	}
	if p := do.MustInvoke[*mq.Publisher](inj); p != nil {
		_ = p.Close()
	}
	if conn := do.MustInvoke[*amqp.Connection](inj); conn != nil {
		_ = conn.Close()
	}
	if rdb := do.MustInvoke[*redis.Client](inj); rdb != nil {
		_ = rdb.Close()
	}
	if err := telemetry.Shutdown(ctx); err != nil {
		log.Warn("shutdown tracing", zap.Error(err))
	}
	if err := telemetry.ShutdownMetrics(ctx); err != nil {
		log.Warn("shutdown metrics", zap.Error(err))
	}
}
