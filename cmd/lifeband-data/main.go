package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"lifeband-data/internal/cache"
	"lifeband-data/internal/config"
	"lifeband-data/internal/consumer"
	httpapi "lifeband-data/internal/http"
	"lifeband-data/internal/notifier"
	"lifeband-data/internal/pipeline"
	"lifeband-data/internal/repository"
	"lifeband-data/internal/service"
	"lifeband-data/pkg/logger"
	mqttclient "lifeband-data/pkg/mqtt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "lifeband-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// 数据库
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdle)
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Redis（最新样本缓存，不可用时服务降级为直接回源）
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warn("Redis unavailable, latest-sample cache disabled", zap.Error(err))
	}
	defer redisClient.Close()

	retentionWindow := time.Duration(cfg.Retention.RetentionWindow) * time.Second

	// 仓库
	telemetryRepo := repository.NewTelemetryRepository(db, log)
	activityRepo := repository.NewActivityRepository(db, log)
	deviceRepo := repository.NewDeviceRepository(db, log)
	userRepo := repository.NewUserRepository(db, log)
	contactRepo := repository.NewContactRepository(db, log)

	// 缓存 TTL 与保留时长对齐，缓存不会比库里的行活得更久
	latestCache := cache.NewLatestCache(redisClient, retentionWindow, log)

	// 服务
	classifier := pipeline.NewClassifier(pipeline.DefaultThresholds())
	ingestSvc := service.NewIngestService(
		telemetryRepo, activityRepo, deviceRepo, latestCache,
		classifier, cfg.Ingest.DemoUserID, log,
	)
	querySvc := service.NewTelemetryQueryService(telemetryRepo, latestCache, log)

	// 短信通道：启动时尝试连接，失败不阻塞服务（投递时报通道未就绪）
	smsClient := notifier.NewSMSClient(
		cfg.Notify.GatewayURL, cfg.Notify.GatewayAppID, cfg.Notify.GatewayAppSecret, log,
	)
	channel := notifier.NewChannelConnector(smsClient, log)
	connectCtx, connectCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := channel.Connect(connectCtx); err != nil {
		log.Warn("SMS channel connect failed, deliveries will fail until reconnect", zap.Error(err))
	}
	connectCancel()

	dispatcher := service.NewNotificationDispatcher(
		telemetryRepo, contactRepo, activityRepo, channel,
		cfg.Notify.DefaultCountryCode, cfg.Notify.MapLinkBase, log,
	)

	// 路由
	router := httpapi.NewRouter(log)
	router.RegisterIngestRoutes(httpapi.NewIngestHandler(ingestSvc, log))
	router.RegisterTelemetryRoutes(httpapi.NewTelemetryHandler(querySvc, userRepo, log))
	router.RegisterActivityRoutes(httpapi.NewActivityHandler(activityRepo, userRepo, log))
	router.RegisterEmergencyRoutes(httpapi.NewEmergencyHandler(dispatcher, userRepo, log))
	router.RegisterDeviceAdminRoutes(httpapi.NewDeviceAdminHandler(deviceRepo, userRepo, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 保留清理任务
	sweeper := service.NewRetentionSweeper(
		telemetryRepo,
		time.Duration(cfg.Retention.SweepInterval)*time.Second,
		retentionWindow,
		log,
	)
	go sweeper.Start(ctx)

	// MQTT 消费者（可选）
	var mqttConsumer *consumer.MQTTConsumer
	var mqttConn *mqttclient.Client
	if cfg.MQTT.Enabled {
		mqttConn, err = mqttclient.NewClient(mqttclient.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		}, log)
		if err != nil {
			log.Fatal("Failed to connect to MQTT broker", zap.Error(err))
		}
		mqttConsumer = consumer.NewMQTTConsumer(cfg, mqttConn, ingestSvc, log)
		go func() {
			if err := mqttConsumer.Start(ctx); err != nil {
				log.Error("MQTT consumer exited", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		log.Error("HTTP server exited", zap.Error(err))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)

	if mqttConsumer != nil {
		_ = mqttConsumer.Stop(shutdownCtx)
	}
	if mqttConn != nil {
		mqttConn.Disconnect()
	}
}
