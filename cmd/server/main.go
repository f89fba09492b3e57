package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"worklog/internal/config"
	"worklog/internal/handler"
	"worklog/internal/logger"
	"worklog/internal/middleware"
	"worklog/internal/model"
	"worklog/internal/provider"
	"worklog/internal/secret"
	"worklog/internal/service"
)

const version = "1.0.0"

func main() {
	configFile := flag.String("config", "", "config file path (e.g. etc/config-dev.yaml)")
	flag.Parse()

	cfg := config.Load(*configFile)
	logger.Init(cfg.Log)

	db, err := cfg.OpenGormDB()
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(&model.WorklogEntry{}, &model.JiraConfig{}); err != nil {
		slog.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	sealKey := cfg.Auth.SealKey
	if sealKey == "" {
		slog.Warn("no seal key configured, using development default")
		sealKey = "worklog-dev-seal-key"
	}
	box, err := secret.NewBox(sealKey)
	if err != nil {
		slog.Error("seal key invalid", "err", err)
		os.Exit(1)
	}

	authProvider := provider.NewClient(cfg.Auth.ProviderURL, cfg.Auth.ProviderKey)

	authSvc := service.NewAuthService(authProvider, cfg.Auth.FrontendURL)
	worklogSvc := service.NewWorklogService(db)
	jiraSvc := service.NewJiraService(db, box)

	authH := handler.NewAuthHandler(authSvc)
	worklogH := handler.NewWorklogHandler(worklogSvc)
	jiraH := handler.NewJiraHandler(jiraSvc, worklogSvc)

	requireAuth := middleware.RequireAuth([]byte(cfg.Auth.JWTSecret), authProvider)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOriginList(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "app": "worklog"})
	})
	r.GET("/api/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "operational", "version": version})
	})

	auth := r.Group("/api/auth")
	auth.GET("/google", authH.Google)
	auth.GET("/google/redirect", authH.GoogleRedirect)
	auth.POST("/callback", authH.Callback)
	auth.POST("/refresh", authH.Refresh)
	auth.POST("/logout", authH.Logout)
	auth.GET("/me", requireAuth, authH.Me)

	api := r.Group("/api/worklog", requireAuth)
	api.GET("/range", worklogH.Range)
	api.GET("/jira/config", jiraH.GetConfig)
	api.PUT("/jira/config", jiraH.UpdateConfig)
	api.GET("/entries/:id", worklogH.GetEntry)
	api.PATCH("/entries/:id", worklogH.UpdateEntry)
	api.DELETE("/entries/:id", worklogH.DeleteEntry)
	api.GET("/:date", worklogH.GetDay)
	api.PUT("/:date", worklogH.SaveDay)
	api.POST("/:date/entries", worklogH.CreateEntry)
	api.POST("/:date/entries/:id/log-to-jira", jiraH.LogEntry)
	api.POST("/:date/bulk-log-to-jira", jiraH.BulkLog)

	slog.Info("server starting", "addr", cfg.Addr())
	if err := r.Run(cfg.Addr()); err != nil {
		slog.Error("server failed", "err", err)
	}
}
