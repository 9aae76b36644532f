package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"clinic-service/internal/chat"
	"clinic-service/internal/config"
	"clinic-service/internal/db"
	"clinic-service/internal/directory"
	grpcserver "clinic-service/internal/grpc"
	"clinic-service/internal/handlers"
	"clinic-service/internal/logging"
	"clinic-service/internal/middleware"
	"clinic-service/internal/observability"
	"clinic-service/internal/presence"
	"clinic-service/internal/queue"
	"clinic-service/internal/rabbitmq"
	"clinic-service/internal/repositories"
	"clinic-service/internal/scheduler"
	"clinic-service/internal/telemetry"
	"clinic-service/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	_, flush, err := logging.New(cfg.LogLevel, cfg.ServiceName, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		zap.S().Fatalw("failed to init tracer", "error", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	database, err := db.Connect(startCtx, cfg.DBDSN)
	if err != nil {
		zap.S().Fatalw("failed to connect to db", "error", err)
	}
	defer database.Close()

	mongoClient, err := directory.Connect(startCtx, cfg.MongoURI)
	if err != nil {
		zap.S().Fatalw("failed to connect to mongo", "error", err)
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	zap.S().Infow("event publisher ready",
		"mode", rabbitmq.PublisherMode(publisher),
		"noop_reason", rabbitmq.PublisherNoopReason(publisher),
	)
	audit := telemetry.NewAuditEmitter(publisher, cfg.AuditRoutingKey, cfg.ServiceName, cfg.Environment)

	messageRepo := repositories.NewMessageRepo(database)
	consultationRepo := repositories.NewConsultationRepo(database)
	dir := directory.NewFromDatabase(mongoClient.Database(cfg.MongoDatabase))

	registry := presence.NewRegistry()
	engine := chat.NewEngine(messageRepo, registry)
	queueService := queue.NewService(consultationRepo, dir)

	chatHandler := handlers.NewChatHandler(engine, registry)
	consultationHandler := handlers.NewConsultationHandler(queueService, audit)
	chatWS := ws.NewChatWebSocketHandler(engine)

	router := gin.New()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(corsMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RequestID(), middleware.Actor())
	router.Use(observability.HTTPMetricsMiddleware())

	handlers.RegisterChatRoutes(router, chatHandler)
	handlers.RegisterConsultationRoutes(router, consultationHandler)
	handlers.RegisterDebugRoutes(router, audit, cfg.Environment == "development")
	router.GET("/ws/chat", chatWS.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "online_users": engine.OnlineCount()})
	})

	jobs := scheduler.NewScheduler(queueService, engine, cfg.QueueGaugeSchedule)
	if err := jobs.Start(); err != nil {
		zap.S().Fatalw("failed to start scheduler", "error", err)
	}
	defer jobs.Stop()

	health := grpcserver.NewHealthServer(map[string]grpcserver.Checker{
		grpcserver.ChatService: func(ctx context.Context) error { return database.PingContext(ctx) },
		grpcserver.QueueService: func(ctx context.Context) error {
			if err := database.PingContext(ctx); err != nil {
				return err
			}
			return mongoClient.Ping(ctx, nil)
		},
	})
	health.Refresh(startCtx)
	go func() {
		if err := health.Serve(cfg.GRPCAddr); err != nil {
			zap.S().Errorw("grpc server error", "error", err)
		}
	}()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				health.Refresh(ctx)
			}
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zap.S().Infow("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalw("server error", "error", err)
		}
	}()

	<-ctx.Done()
	zap.S().Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorw("http shutdown", "error", err)
	}
	health.Stop()
	if err := shutdownTracer(shutdownCtx); err != nil {
		zap.S().Errorw("tracer shutdown", "error", err)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-Id", "X-User-Id", "X-Device-Id"},
		ExposeHeaders: []string{"X-Request-Id"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
