package api

import (
	"github.com/moodtunes/moodtunes-api/internal/api/handlers"
	apimiddleware "github.com/moodtunes/moodtunes-api/internal/api/middleware"
	"github.com/moodtunes/moodtunes-api/internal/config"
	"github.com/moodtunes/moodtunes-api/internal/metrics"
	webhandlers "github.com/moodtunes/moodtunes-api/internal/web/handlers"
	"github.com/gin-gonic/gin"
)

func SetupRouter(cfg *config.Config, cwMetrics *metrics.Client, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking())

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(cfg, version)
	router.GET("/health", healthHandler.HealthCheck)

	// Web pages
	webHandler := webhandlers.NewWebHandler()
	router.GET("/", webHandler.Home)
	router.GET("/chat-bot", webHandler.ChatBot)
	router.GET("/song-recommender-app", webHandler.SongRecommender)

	// Chat endpoints
	chatHandler := handlers.NewChatHandler(cfg, cwMetrics)
	chatBot := router.Group("/api/chat-bot")
	{
		chatBot.POST("/chat", chatHandler.Chat)
		chatBot.POST("/chat-stream", chatHandler.ChatStream) // Streaming relay endpoint
	}

	// Song recommender endpoint
	recommenderHandler := handlers.NewRecommenderHandler(cfg, cwMetrics)
	router.POST("/api/song-recommender-agent", recommenderHandler.Recommend)

	// Agent dispatch endpoint
	agentHandler := handlers.NewAgentHandler(cfg)
	router.POST("/api/agent", agentHandler.Dispatch)

	return router
}
