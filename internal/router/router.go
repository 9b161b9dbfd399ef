package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/userlink/userlink-server/docs"
	"github.com/userlink/userlink-server/internal/config"
	"github.com/userlink/userlink-server/internal/middleware"
	"github.com/userlink/userlink-server/internal/modules/handler"
	"github.com/userlink/userlink-server/internal/modules/serializer"
	"github.com/userlink/userlink-server/internal/telemetry"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	Config            *config.Config
	Log               *zap.Logger
	UserHandler       *handler.UserHandler
	AssistantHandler  *handler.AssistantHandler
	ChatThreadHandler *handler.ChatThreadHandler
	MessageHandler    *handler.MessageHandler
	FileHandler       *handler.FileHandler
	RealtimeHandler   *handler.RealtimeHandler
}

func NewRouter(d RouterDeps) *gin.Engine {
	// Initialize logger for serializer package
	serializer.SetLogger(d.Log)
	handler.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())

	if d.Config.Telemetry.Enabled && d.Config.Telemetry.OtlpEndpoint != "" {
		r.Use(telemetry.GinMiddleware(d.Config.App.Name))
		// Add trace ID to response header
		r.Use(telemetry.TraceIDMiddleware())
	}

	r.Use(middleware.ZapLogger(d.Log))

	// health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "ok"}) })

	// swagger
	r.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	{
		api.Use(middleware.APIKeyAuth(d.Config))

		api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "pong"}) })

		users := api.Group("/users")
		{
			users.GET("", d.UserHandler.ListUsers)
			users.POST("", d.UserHandler.CreateUser)
			users.GET("/:id", d.UserHandler.GetUser)
			users.PUT("/:id", d.UserHandler.UpdateUser)
			users.PATCH("/:id", d.UserHandler.UpdateUser)
			users.DELETE("/:id", d.UserHandler.DeleteUser)
		}

		assistants := api.Group("/assistants")
		{
			assistants.GET("", d.AssistantHandler.ListAssistants)
			assistants.POST("", d.AssistantHandler.CreateAssistant)
			assistants.GET("/:id", d.AssistantHandler.GetAssistant)
			assistants.PUT("/:id", d.AssistantHandler.UpdateAssistant)
			assistants.PATCH("/:id", d.AssistantHandler.UpdateAssistant)
			assistants.DELETE("/:id", d.AssistantHandler.DeleteAssistant)
		}

		chatThreads := api.Group("/chat_threads")
		{
			chatThreads.GET("", d.ChatThreadHandler.ListChatThreads)
			chatThreads.POST("", d.ChatThreadHandler.CreateChatThread)
			chatThreads.GET("/:id", d.ChatThreadHandler.GetChatThread)
			chatThreads.PUT("/:id", d.ChatThreadHandler.UpdateChatThread)
			chatThreads.DELETE("/:id", d.ChatThreadHandler.DeleteChatThread)
			chatThreads.GET("/:id/messages", d.ChatThreadHandler.ListThreadMessages)
			chatThreads.POST("/:id/messages", d.ChatThreadHandler.AddThreadMessage)
		}

		messages := api.Group("/messages")
		{
			messages.GET("", d.MessageHandler.ListMessages)
			messages.POST("", d.MessageHandler.CreateMessage)
			messages.GET("/thread/:threadId", d.MessageHandler.ListThreadMessages)
			messages.POST("/thread/:threadId", d.MessageHandler.CreateThreadMessage)
			messages.GET("/user/:userId", d.MessageHandler.ListUserMessages)
			messages.POST("/ask/:userId", d.MessageHandler.Ask)
		}

		files := api.Group("/files")
		{
			files.GET("", d.FileHandler.ListFiles)
			files.POST("", d.FileHandler.CreateFile)
			files.GET("/:id", d.FileHandler.GetFile)
			files.DELETE("/:id", d.FileHandler.DeleteFile)
			files.GET("/:id/content", d.FileHandler.GetFileContent)
			files.PUT("/:id/content", d.FileHandler.UploadFileContent)
			files.GET("/:id/download", d.FileHandler.DownloadFile)
		}

		rt := api.Group("/realtime")
		{
			rt.GET("/stream", d.RealtimeHandler.Stream)
			rt.POST("/:clientId/subscribe", d.RealtimeHandler.Subscribe)
			rt.POST("/:clientId/unsubscribe", d.RealtimeHandler.Unsubscribe)
		}
	}
	return r
}
