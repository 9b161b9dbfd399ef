package bootstrap

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"

	"github.com/userlink/userlink-server/internal/config"
	"github.com/userlink/userlink-server/internal/infra/blob"
	"github.com/userlink/userlink-server/internal/infra/cache"
	"github.com/userlink/userlink-server/internal/infra/httpclient"
	"github.com/userlink/userlink-server/internal/infra/llm"
	"github.com/userlink/userlink-server/internal/infra/logger"
	mq "github.com/userlink/userlink-server/internal/infra/queue"
	"github.com/userlink/userlink-server/internal/infra/store"
	"github.com/userlink/userlink-server/internal/modules/handler"
	"github.com/userlink/userlink-server/internal/modules/repo"
	"github.com/userlink/userlink-server/internal/modules/service"
	"github.com/userlink/userlink-server/internal/realtime"
)

func BuildContainer() *do.Injector {
	inj := do.New()

	// config
	do.Provide(inj, func(i *do.Injector) (*config.Config, error) {
		return config.Load()
	})

	// logger
	do.Provide(inj, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(cfg.Log.Level)
	})

	// Store
	do.Provide(inj, func(i *do.Injector) (store.Store, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		return OpenStore(context.Background(), cfg, log)
	})

	// Redis, nil when disabled
	do.Provide(inj, func(i *do.Injector) (*redis.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if !cfg.Redis.Enabled {
			return nil, nil
		}
		rdb, err := cache.New(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Telemetry.Enabled {
			if err := cache.RegisterOpenTelemetryPlugin(rdb); err != nil {
				do.MustInvoke[*zap.Logger](i).Warn("redis otel plugin", zap.Error(err))
			}
		}
		return rdb, nil
	})

	// RabbitMQ, nil when disabled
	do.Provide(inj, func(i *do.Injector) (*amqp.Connection, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if !cfg.RabbitMQ.Enabled {
			return nil, nil
		}
		return mq.Dial(cfg)
	})
	do.Provide(inj, func(i *do.Injector) (*mq.Publisher, error) {
		conn := do.MustInvoke[*amqp.Connection](i)
		if conn == nil {
			return nil, nil
		}
		return mq.NewPublisher(conn, do.MustInvoke[*zap.Logger](i), do.MustInvoke[*config.Config](i))
	})

	// S3, nil when disabled
	do.Provide(inj, func(i *do.Injector) (*blob.S3Deps, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return blob.NewS3(context.Background(), cfg)
	})

	// Assistant provider client
	do.Provide(inj, func(i *do.Injector) (*httpclient.AssistantClient, error) {
		return httpclient.NewAssistantClient(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	// LLM responder for the ask flow
	do.Provide(inj, func(i *do.Injector) (llm.Responder, error) {
		return llm.New(context.Background(), do.MustInvoke[*config.Config](i), do.MustInvoke[*zap.Logger](i))
	})

	// Realtime
	do.Provide(inj, func(i *do.Injector) (*realtime.Relay, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		var bus realtime.Bus
		if rdb := do.MustInvoke[*redis.Client](i); rdb != nil {
			bus = realtime.NewRedisBus(rdb, cfg.Redis.Channel, log)
		}
		return realtime.NewRelay(realtime.NewHub(log), bus, log), nil
	})

	// Repo
	do.Provide(inj, func(i *do.Injector) (repo.UserRepo, error) {
		return repo.NewUserRepo(do.MustInvoke[store.Store](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.AssistantRepo, error) {
		return repo.NewAssistantRepo(do.MustInvoke[store.Store](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ChatThreadRepo, error) {
		return repo.NewChatThreadRepo(do.MustInvoke[store.Store](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.MessageRepo, error) {
		return repo.NewMessageRepo(do.MustInvoke[store.Store](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.FileRepo, error) {
		return repo.NewFileRepo(do.MustInvoke[store.Store](i)), nil
	})

	// Service
	do.Provide(inj, func(i *do.Injector) (service.CascadeEngine, error) {
		return service.NewCascadeEngine(service.CascadeDeps{
			Users:      do.MustInvoke[repo.UserRepo](i),
			Assistants: do.MustInvoke[repo.AssistantRepo](i),
			Threads:    do.MustInvoke[repo.ChatThreadRepo](i),
			Messages:   do.MustInvoke[repo.MessageRepo](i),
			Files:      do.MustInvoke[repo.FileRepo](i),
			Remote:     do.MustInvoke[*httpclient.AssistantClient](i),
			Blobs:      blobStore(do.MustInvoke[*blob.S3Deps](i)),
			Events:     eventPublisher(do.MustInvoke[*mq.Publisher](i)),
			Log:        do.MustInvoke[*zap.Logger](i),
		}), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.MessageService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return service.NewMessageService(service.MessageServiceDeps{
			Messages:   do.MustInvoke[repo.MessageRepo](i),
			Threads:    do.MustInvoke[repo.ChatThreadRepo](i),
			Users:      do.MustInvoke[repo.UserRepo](i),
			Assistants: do.MustInvoke[repo.AssistantRepo](i),
			Publisher:  do.MustInvoke[*realtime.Relay](i),
			Responder:  do.MustInvoke[llm.Responder](i),
			ReplyDelay: time.Duration(cfg.LLM.ReplyDelayMs) * time.Millisecond,
			Log:        do.MustInvoke[*zap.Logger](i),
		}), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.UserService, error) {
		return service.NewUserService(
			do.MustInvoke[repo.UserRepo](i),
			do.MustInvoke[repo.AssistantRepo](i),
			do.MustInvoke[service.CascadeEngine](i),
			do.MustInvoke[*config.Config](i).Root.SecretPepper,
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.AssistantService, error) {
		return service.NewAssistantService(
			do.MustInvoke[repo.AssistantRepo](i),
			do.MustInvoke[repo.UserRepo](i),
			do.MustInvoke[repo.ChatThreadRepo](i),
			do.MustInvoke[*httpclient.AssistantClient](i),
			do.MustInvoke[service.CascadeEngine](i),
			do.MustInvoke[*config.Config](i).OpenAI.DefaultModel,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ChatThreadService, error) {
		return service.NewChatThreadService(
			do.MustInvoke[repo.ChatThreadRepo](i),
			do.MustInvoke[repo.MessageRepo](i),
			do.MustInvoke[service.MessageService](i),
			do.MustInvoke[service.CascadeEngine](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.FileService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return service.NewFileService(
			do.MustInvoke[repo.FileRepo](i),
			blobStore(do.MustInvoke[*blob.S3Deps](i)),
			cfg.Files.PlaceholderBaseURL,
			time.Duration(cfg.S3.PresignExpireSec)*time.Second,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	// Handler
	do.Provide(inj, func(i *do.Injector) (*handler.UserHandler, error) {
		return handler.NewUserHandler(do.MustInvoke[service.UserService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.AssistantHandler, error) {
		return handler.NewAssistantHandler(do.MustInvoke[service.AssistantService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ChatThreadHandler, error) {
		return handler.NewChatThreadHandler(do.MustInvoke[service.ChatThreadService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.MessageHandler, error) {
		return handler.NewMessageHandler(do.MustInvoke[service.MessageService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.FileHandler, error) {
		return handler.NewFileHandler(do.MustInvoke[service.FileService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.RealtimeHandler, error) {
		return handler.NewRealtimeHandler(do.MustInvoke[*realtime.Relay](i).Hub()), nil
	})
	return inj
}

// blobStore keeps a disabled S3 out of the interface as a true nil.
func blobStore(s3 *blob.S3Deps) service.BlobStore {
	if s3 == nil {
		return nil
	}
	return s3
}

func eventPublisher(p *mq.Publisher) service.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}
