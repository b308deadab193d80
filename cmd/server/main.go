package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amisra31/localpick-market-demo-sub001/internal/config"
	"github.com/amisra31/localpick-market-demo-sub001/internal/events"
	"github.com/amisra31/localpick-market-demo-sub001/internal/handler"
	"github.com/amisra31/localpick-market-demo-sub001/internal/hub"
	"github.com/amisra31/localpick-market-demo-sub001/internal/presence"
	"github.com/amisra31/localpick-market-demo-sub001/internal/repository"
	"github.com/amisra31/localpick-market-demo-sub001/internal/service"
	"github.com/amisra31/localpick-market-demo-sub001/pkg/jwt"
	"github.com/amisra31/localpick-market-demo-sub001/pkg/log"
	"github.com/amisra31/localpick-market-demo-sub001/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	logger := log.L()
	logger.Info().Msg("starting marketplace gateway")

	db, err := repository.OpenDatabase(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	store := repository.NewGormStore(db)

	var pres presence.Store
	if cfg.Redis.Address != "" {
		pres, err = presence.NewRedisStore(cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		logger.Info().Str("address", cfg.Redis.Address).Msg("presence store connected")
	} else {
		pres = presence.Noop{}
		logger.Warn().Msg("redis address not set, presence tracking disabled")
	}

	var producer events.Producer
	if cfg.Kafka.Brokers != "" {
		producer, err = events.NewConfluentProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create kafka producer")
		}
		logger.Info().Str("topic", cfg.Kafka.Topic).Msg("event producer connected")
	} else {
		producer = events.Noop{}
		logger.Warn().Msg("kafka brokers not set, order events disabled")
	}

	h := hub.NewHub()
	monitor := hub.NewHeartbeatMonitor(h, cfg.WebSocket.PingInterval)
	monitor.Start()

	chatSvc := service.NewChatService(h, store, pres)
	orderSvc := service.NewOrderService(store, store, h, producer)

	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.Issuer)
	authMW := middleware.NewAuthMiddleware(jwtManager)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(log.GinMiddleware(logger))

	wsHandler := handler.NewWSHandler(h, chatSvc, cfg.WebSocket)
	wsHandler.RegisterRoutes(r)

	httpHandler := handler.NewHTTPHandler(orderSvc, chatSvc, store, store, pres)
	httpHandler.RegisterRoutes(r, authMW.RequireAuth())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Info().Str("address", addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}

	monitor.Stop()
	h.Close()
	producer.Close()
	if err := pres.Close(); err != nil {
		logger.Error().Err(err).Msg("presence store close error")
	}

	logger.Info().Msg("stopped")
}
