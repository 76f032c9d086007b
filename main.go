package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"examhub/dispatch/core"
	"examhub/dispatch/core/domain/healthlog"
	"examhub/dispatch/database"
	"examhub/dispatch/handler"
	"examhub/dispatch/utils/config"
)

func main() {
	log.Println("Starting Dispatch API router...")

	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	routes, err := config.LoadRouting(cfg.RoutesFile)
	if err != nil {
		log.Fatalf("Failed to load routing table: %v", err)
	}

	// Initialize database
	if err := database.Initialize(cfg.Database.Path); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()
	healthLogRepo := healthlog.NewRepository(database.GetDB())

	reg, err := core.NewServiceRegistry(routes.Descriptors())
	if err != nil {
		log.Fatalf("Invalid service registry: %v", err)
	}
	log.Printf("Registered %d services", reg.Len())

	monitor := core.NewHealthMonitor(reg, cfg.Health.Interval, cfg.Health.Timeout, healthLogRepo)

	rtr, err := core.NewAPIRouter(core.RouterOptions{
		Registry:        reg,
		Health:          monitor,
		Failover:        routes.Failover,
		DeprecatedPaths: routes.DeprecatedPaths,
		DefaultService:  routes.DefaultService,
	})
	if err != nil {
		log.Fatalf("Invalid routing configuration: %v", err)
	}

	core.InitMetrics()

	// Start health monitor
	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	go monitor.Start(monitorCtx)

	// Set Gin mode based on log level
	if config.IsDebugMode() {
		gin.SetMode(gin.DebugMode)
		log.Println("Running in DEBUG mode")
	} else {
		gin.SetMode(gin.ReleaseMode)
		log.Println("Running in RELEASE mode")
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	if config.IsDebugMode() {
		engine.Use(gin.Logger())
	}

	handler.RegisterRoutes(engine, handler.Options{
		Router:          rtr,
		Proxy:           core.NewProxyService(cfg.Proxy.Timeout, core.NewTokenProvider(cfg.Proxy.ServiceToken)),
		HealthLogs:      healthLogRepo,
		EnableTestHooks: cfg.EnableTestHooks,
		ExposeMetrics:   true,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:           addr,
		Handler:        engine,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	// Start server in background
	go func() {
		log.Printf("Dispatch listening on %s", addr)
		log.Println("Management API available at: /dispatch")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down dispatch...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	stopMonitor()
	select {
	case <-monitor.Done():
	case <-ctx.Done():
		log.Println("Warning: health monitor did not stop before the shutdown deadline")
	}

	log.Println("Dispatch stopped gracefully")
}
