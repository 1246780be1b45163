// cmd/notification-service/main.go
package main

import (
	"context"
	"net/http"
	"time"

	zlog "github.com/rs/zerolog/log"

	"petshop/internal/pkg/bootstrap"
	"petshop/internal/pkg/kvstore"
	"petshop/internal/pkg/logger"
	pkgredis "petshop/internal/pkg/redis"
	"petshop/internal/pkg/session"
	notifapp "petshop/internal/service/notification/application"
	notifinfra "petshop/internal/service/notification/infrastructure"
	notififace "petshop/internal/service/notification/interfaces"
)

const (
	serviceName     = "notification-service"
	consumerGroupID = "notification-group"
)

func main() {
	logger.Init(serviceName)
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient, err := pkgredis.NewClient(ctx, cfg.Infra.Redis.Addr)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to redis")
	}
	store := kvstore.NewRedisStore(redisClient)
	sessionMgr := session.NewManager(store, time.Duration(cfg.App.SessionIdleMinutes)*time.Minute)

	service := notifapp.NewNotificationService(notifinfra.NewKvNotificationStore(store))
	handler := notififace.NewNotificationHandler(service, sessionMgr)

	consumer := notifinfra.NewOrderEventConsumer(
		cfg.Infra.Kafka.Brokers,
		cfg.Infra.Kafka.OrderTopic,
		consumerGroupID,
		service,
	)
	go func() {
		zlog.Info().Str("topic", cfg.Infra.Kafka.OrderTopic).Msg("consuming order events")
		if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
			zlog.Fatal().Err(err).Msg("order event consumer stopped")
		}
	}()

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8083,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			handler.RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(shutdownCtx context.Context) {
			cancel()
			if err := consumer.Close(); err != nil {
				zlog.Error().Err(err).Msg("error closing kafka reader")
			}
			if err := redisClient.Close(); err != nil {
				zlog.Error().Err(err).Msg("error closing redis client")
			}
		},
	})
}
