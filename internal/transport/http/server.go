package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/ai"
	appsvc "pdfchat/internal/app"
	"pdfchat/internal/bootstrap"
	"pdfchat/internal/cache"
	"pdfchat/internal/config"
	"pdfchat/internal/corpus"
	"pdfchat/internal/mail"
	rabbitmqClient "pdfchat/internal/platform/rabbitmq"
	"pdfchat/internal/rag"
	"pdfchat/internal/repository"
	"pdfchat/internal/transport/http/handler"
	"pdfchat/internal/transport/http/middleware"
)

func chunkOptions(cfg config.RAGConfig) rag.ChunkOptions {
	bands := make([]rag.SizeBand, 0, len(cfg.ChunkBands))
	for _, b := range cfg.ChunkBands {
		bands = append(bands, rag.SizeBand{UpTo: b.UpTo, Size: b.Size})
	}
	return rag.ChunkOptions{
		SizeBands:         bands,
		OverlapPercent:    cfg.OverlapPercent,
		MaxOverlapPercent: cfg.MaxOverlapPercent,
		MinOverlap:        cfg.MinOverlap,
		MinChunkSize:      cfg.MinChunkSize,
		MaxChunkSize:      cfg.MaxChunkSize,
		MaxChunks:         cfg.MaxChunks,
	}
}

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	gin.SetMode(cfg.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.Postgres)
	docRepo := repository.NewDocumentRepository(app.Postgres)
	chunkRepo := repository.NewChunkRepository(app.Postgres)
	chatRepo := repository.NewChatRepository(app.Postgres)

	var mailer mail.Sender
	if cfg.MailConfigured() {
		mailer = mail.NewSMTPMailer(cfg.Mail)
	}
	authService := appsvc.NewAuthService(
		userRepo,
		mailer,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
		app.Logger,
	)

	aiClient := ai.NewClient(ai.Config{
		BaseURL:         cfg.Gemini.BaseURL,
		APIKey:          cfg.Gemini.APIKey,
		EmbeddingModel:  cfg.Gemini.EmbeddingModel,
		GenerationModel: cfg.Gemini.GenerationModel,
		MaxEmbedChars:   cfg.RAG.MaxEmbedChars,
	}, app.Logger)

	store := corpus.NewStore(aiClient, chunkRepo, cfg.RAG.InsertBatchSize, app.Logger)
	composer := rag.NewComposer(aiClient)
	pipeline := rag.NewPipeline(store, composer, rag.PipelineConfig{
		TopK:                cfg.RAG.TopK,
		SummaryTopK:         cfg.RAG.SummaryTopK,
		SimilarityThreshold: cfg.RAG.SimilarityThreshold,
		ChunkOptions: chunkOptions(cfg.RAG),
	}, app.Logger)

	publisher := rabbitmqClient.NewExchangePublisher(app.MQConn, cfg.RabbitMQ.ExchangePersistQueue)
	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	docService := appsvc.NewDocumentService(docRepo, chunkRepo, chatRepo, userRepo, pipeline, app.Logger)
	chatService := appsvc.NewChatService(docRepo, chatRepo, userRepo, pipeline, publisher, historyCache, app.Logger)

	authHandler := handler.NewAuthHandler(authService)
	docHandler := handler.NewDocumentHandler(docService)
	chatHandler := handler.NewChatHandler(chatService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(cfg.Auth.JWTSecret), authHandler.Me)

	docGroup := v1.Group("/documents")
	docGroup.Use(middleware.AuthJWT(cfg.Auth.JWTSecret))
	docGroup.POST("", docHandler.Upload)
	docGroup.GET("", docHandler.List)
	docGroup.DELETE("/:id", docHandler.Delete)
	docGroup.POST("/:id/chat", chatHandler.Ask)
	docGroup.GET("/:id/chat", chatHandler.History)

	return router
}
