package main

import (
	"context"
	"fmt"
	"time"

	"chatrelay/config"
	"chatrelay/controller"
	"chatrelay/model"
	"chatrelay/platform"
	"chatrelay/service"
	"chatrelay/store"

	_uuid "github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CORSMiddleware ...
// CORS (Cross-Origin Resource Sharing)
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Origin, Authorization, Accept, Accept-Encoding")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, X-Conversation-Id")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
		} else {
			c.Next()
		}
	}
}

// RequestIDMiddleware ...
// Generate a unique ID and attach it to each request for future reference or use
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		uuid := _uuid.New()
		c.Writer.Header().Set("X-Request-Id", uuid.String())
		c.Set("requestId", uuid.String())
		c.Next()
	}
}

func LogMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		if raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		latency := time.Since(start)

		status := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method
		userAgent := c.Request.UserAgent()
		requestId := c.GetString("requestId")

		logger.Infof(
			" [%s] %d | %v | %s | %s | %s | %s ",
			requestId,
			status,
			latency,
			clientIP,
			method,
			path,
			userAgent,
		)
	}
}

func main() {
	fmt.Println("Server started...")

	//Load the .env file
	if err := godotenv.Load(".env"); err != nil {
		fmt.Println("failed to load the env file")
	}

	logger := platform.NewAppLogger("./log", "chatrelay")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	db, err := platform.NewDB(cfg)
	if err != nil {
		logger.Fatalf("init database: %v", err)
	}
	if err := model.InstallDB(db); err != nil {
		logger.Fatalf("migrate database: %v", err)
	}

	cipher, err := platform.NewCipher(cfg.EncryptionKey)
	if err != nil {
		logger.Fatalf("init cipher: %v", err)
	}

	chatStore := store.NewChatStore(db)
	quotaStore := store.NewQuotaStore(db)
	userStore := store.NewUserStore(db)
	settingStore := store.NewSettingStore(db)

	reporter := &service.LogReporter{Logger: logger}
	quotaService := service.NewGuestQuotaService(quotaStore)
	tokenService := service.NewTokenService(cfg.AccessSecret)
	userService := service.NewUserService(userStore, tokenService)
	settingService := service.NewSettingService(settingStore, cipher)
	chatService := service.NewChatService(cfg, chatStore, quotaService, settingStore, cipher, reporter, logger)

	auth := controller.NewAuthController(tokenService, cfg.AccessSecret)
	user := controller.NewUserController(userService, logger)
	chat := controller.NewChatController(chatService, quotaService, logger)
	openAI := controller.NewOpenAIController(cfg, logger)
	conversations := controller.NewConversationController(db, logger)
	settings := controller.NewSettingController(settingService, logger)

	r := gin.Default()
	r.Use(CORSMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(LogMiddleware(logger))

	v1 := r.Group("/v1")
	{
		v1.POST("/user/register", user.Register)
		v1.POST("/user/login", user.Login)

		//Refresh the token
		v1.POST("/token/refresh", auth.Refresh)

		// Chat relay: guests allowed, sessions resolved when present
		v1.POST("/chat", auth.TokenOptional, chat.Chat)
		v1.GET("/chat/quota", chat.Quota)

		// OpenAI-compatible facade
		v1.POST("/chat/completions", openAI.ChatCompletions)
		v1.GET("/models", openAI.Models)

		authed := v1.Group("", auth.TokenValid)
		{
			authed.GET("/conversations", conversations.List)
			authed.GET("/conversations/:id", conversations.Get)
			authed.PATCH("/conversations/:id", conversations.Rename)
			authed.DELETE("/conversations/:id", conversations.Delete)

			authed.GET("/settings", settings.Get)
			authed.PUT("/settings", settings.Put)
		}
	}

	c := cron.New()
	c.AddFunc("13 4 * * *", func() {
		purged, err := quotaService.PurgeExpired(context.Background())
		if err != nil {
			logger.Warnf("purge expired guest quotas: %v", err)
			return
		}
		logger.Infof("purged %d expired guest quota records", purged)
	})
	c.Start()

	r.Run(":" + cfg.Port)
}
