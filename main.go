package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"funneltrack/api/analytics"
	"funneltrack/api/config"
	"funneltrack/api/database"
	"funneltrack/api/events"
	"funneltrack/api/handlers"
	"funneltrack/api/middleware"
	"funneltrack/api/store"
	"funneltrack/api/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("loading configuration")
	}

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	utils.InitJWT(cfg.JWTSecret)

	dbClient, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("initializing PostgreSQL")
	}
	defer dbClient.Close()

	chClient, err := database.NewClickHouseDB(cfg.ClickHouse)
	if err != nil {
		logrus.WithError(err).Fatal("initializing ClickHouse")
	}
	defer chClient.Close()

	sessionStore := store.NewSessionStore(dbClient.DB)
	eventStore := store.NewEventStore(chClient)
	userStore := store.NewUserStore(dbClient.DB)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer bootCancel()
	for _, ensure := range []func(context.Context) error{
		sessionStore.EnsureSchema,
		eventStore.EnsureSchema,
		userStore.EnsureSchema,
	} {
		if err := ensure(bootCtx); err != nil {
			logrus.WithError(err).Fatal("ensuring schema")
		}
	}

	engine := analytics.NewEngine(sessionStore, eventStore)
	processor := events.NewProcessor(sessionStore, eventStore)

	authHandlers := handlers.NewAuthHandlers(userStore)
	trackHandlers := handlers.NewTrackHandlers(sessionStore, processor)
	analyticsHandlers := handlers.NewAnalyticsHandlers(engine, sessionStore, eventStore)

	r := gin.Default()
	r.Use(middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/signup", authHandlers.Signup)
		api.POST("/login", authHandlers.Login)
		api.POST("/logout", authHandlers.Logout)

		// Public collector endpoints used by the form funnel itself.
		tracking := api.Group("/analytics")
		{
			tracking.POST("/session", trackHandlers.CreateSession)
			tracking.POST("/event", trackHandlers.TrackEvent)
			tracking.POST("/heartbeat", trackHandlers.Heartbeat)
		}

		// Dashboard reads require an operator token.
		protected := api.Group("/analytics")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/kpis", analyticsHandlers.GetKPIs)
			protected.GET("/geo", analyticsHandlers.GetGeo)
			protected.GET("/devices", analyticsHandlers.GetDevices)
			protected.GET("/channels", analyticsHandlers.GetChannels)
			protected.GET("/funnel", analyticsHandlers.GetFunnel)
			protected.GET("/questions", analyticsHandlers.GetQuestions)
			protected.GET("/dashboard", analyticsHandlers.GetDashboard)
			protected.GET("/health", analyticsHandlers.GetHealth)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logrus.WithField("port", cfg.Port).Info("API server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("API server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("server forced to shutdown")
	}

	logrus.Info("server exiting")
}
