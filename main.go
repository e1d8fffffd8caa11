package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messaging-service/internal/auth"
	"messaging-service/internal/bus"
	"messaging-service/internal/config"
	"messaging-service/internal/db"
	"messaging-service/internal/engine"
	"messaging-service/internal/handlers"
	"messaging-service/internal/middleware"
	"messaging-service/internal/observability"
	"messaging-service/internal/repositories"
	"messaging-service/internal/telemetry"
	"messaging-service/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownTracer, err := telemetry.InitTracer(context.Background(), cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("tracer shutdown: %v", err)
		}
	}()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	statusRepo := repositories.NewStatusRepo(database)
	reactionRepo := repositories.NewReactionRepo(database)
	userRepo := repositories.NewUserRepo(database)

	hub := ws.NewHub()
	eventBus := bus.New(cfg.AMQPURL, cfg.AMQPExchange, hub)

	eng := engine.New(chatRepo, messageRepo, statusRepo, reactionRepo, userRepo, eventBus)

	resolver := auth.NewJWTResolver(cfg.JWTSecret, userRepo)

	chatHandler := handlers.NewChatHandler(eng)
	messageHandler := handlers.NewMessageHandler(eng)
	reactionHandler := handlers.NewReactionHandler(eng)

	chatWS := ws.NewChatWebSocketHandler(hub, eng, resolver, eventBus)
	userWS := ws.NewUserWebSocketHandler(hub, resolver)

	auditEmitter := telemetry.NewAuditEmitter(eventBus, "audit.messaging", "messaging-service", cfg.Environment)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("messaging-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(resolver)

	router.POST("/chats", authMiddleware, chatHandler.CreateChat)
	router.GET("/chats", authMiddleware, chatHandler.ListChats)
	router.POST("/chats/:chat_id/participants", authMiddleware, chatHandler.AddParticipant)
	router.DELETE("/chats/:chat_id", authMiddleware, chatHandler.DeactivateChat)
	router.GET("/chats/:chat_id/messages", authMiddleware, messageHandler.GetChatMessages)
	router.POST("/chats/:chat_id/messages", authMiddleware, messageHandler.PostChatMessage)
	router.PUT("/messages/read/:chat_id", authMiddleware, messageHandler.MarkChatRead)
	router.PUT("/messages/:message_id/status", authMiddleware, messageHandler.UpdateMessageStatus)
	router.POST("/reactions", authMiddleware, reactionHandler.React)
	router.GET("/reactions", authMiddleware, reactionHandler.ListReactions)
	router.GET("/reactions/types", authMiddleware, reactionHandler.ListReactionTypes)

	router.GET("/ws/chats/:chat_id", chatWS.Handle)
	router.GET("/ws/user", userWS.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
