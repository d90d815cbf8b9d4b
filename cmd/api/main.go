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
	"github.com/stivenPRO500/siembrasApp/internal/cache"
	"github.com/stivenPRO500/siembrasApp/internal/config"
	"github.com/stivenPRO500/siembrasApp/internal/database"
	"github.com/stivenPRO500/siembrasApp/internal/handlers"
	farmhandlers "github.com/stivenPRO500/siembrasApp/internal/handlers/farm"
	"github.com/stivenPRO500/siembrasApp/internal/middleware"
	"github.com/stivenPRO500/siembrasApp/internal/models"
	"github.com/stivenPRO500/siembrasApp/internal/repository"
	farmrepo "github.com/stivenPRO500/siembrasApp/internal/repository/farm"
	"github.com/stivenPRO500/siembrasApp/internal/services"
	"github.com/stivenPRO500/siembrasApp/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	ctx := context.Background()

	// Initialize database pool
	pool, err := database.NewPool(ctx, &cfg.DB)
	if err != nil {
		log.Fatalf("Failed to initialize database pool: %v", err)
	}

	// Initialize Redis client
	redisClient, err := cache.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize Redis client: %v", err)
	}

	// Initialize storage driver
	storageDriver, err := storage.NewDriver(&storage.Config{
		Driver:             cfg.Storage.Driver,
		UploadsPath:        cfg.Storage.UploadsPath,
		AWSAccessKeyID:     cfg.Storage.AWSAccessKeyID,
		AWSSecretAccessKey: cfg.Storage.AWSSecretAccessKey,
		AWSRegion:          cfg.Storage.AWSRegion,
		AWSBucket:          cfg.Storage.AWSBucket,
		R2AccessKeyID:      cfg.Storage.R2AccessKeyID,
		R2SecretAccessKey:  cfg.Storage.R2SecretAccessKey,
		R2AccountID:        cfg.Storage.R2AccountID,
		R2Bucket:           cfg.Storage.R2Bucket,
		R2PublicURL:        cfg.Storage.R2PublicURL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize storage driver: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool)
	subRepo := repository.NewSubscriptionRepository(pool)
	parcelRepo := farmrepo.NewParcelRepository(pool)
	activityRepo := farmrepo.NewActivityRepository(pool)
	productRepo := farmrepo.NewProductRepository(pool)
	harvestRepo := farmrepo.NewHarvestRepository(pool)

	// Initialize services
	subService := services.NewSubscriptionService(userRepo, subRepo)
	statusService := services.NewStatusService(parcelRepo, activityRepo)
	harvestService := services.NewHarvestService(activityRepo, harvestRepo)
	uploadService := services.NewUploadService(storageDriver)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userRepo, cfg)
	userHandler := handlers.NewUserHandler(userRepo, cfg)
	subHandler := handlers.NewSubscriptionHandler(subService, uploadService)
	parcelHandler := farmhandlers.NewParcelHandler(parcelRepo, statusService, redisClient)
	activityHandler := farmhandlers.NewActivityHandler(activityRepo, parcelRepo, productRepo, statusService)
	catalogHandler := farmhandlers.NewCatalogHandler(productRepo, uploadService)
	harvestHandler := farmhandlers.NewHarvestHandler(harvestRepo, parcelRepo, harvestService)
	summaryHandler := farmhandlers.NewSummaryHandler(parcelRepo, activityRepo, productRepo, harvestRepo, userRepo, redisClient)

	router := setupRouter(cfg, userRepo,
		authHandler, userHandler, subHandler,
		parcelHandler, activityHandler, catalogHandler, harvestHandler, summaryHandler)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	pool.Close()
	redisClient.Close()

	log.Println("Server exited")
}

func setupRouter(
	cfg *config.Config,
	userRepo *repository.UserRepository,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	subHandler *handlers.SubscriptionHandler,
	parcelHandler *farmhandlers.ParcelHandler,
	activityHandler *farmhandlers.ActivityHandler,
	catalogHandler *farmhandlers.CatalogHandler,
	harvestHandler *farmhandlers.HarvestHandler,
	summaryHandler *farmhandlers.SummaryHandler,
) *gin.Engine {
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Locally stored uploads; S3/R2 serve their own URLs
	if cfg.Storage.Driver == "local" || cfg.Storage.Driver == "" {
		router.Static("/uploads", cfg.Storage.UploadsPath)
	}

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		public.POST("/auth/register", authHandler.Register)
		public.POST("/auth/login", authHandler.Login)
	}

	// Authenticated routes: valid session, any access state. A farmer stuck
	// on the plan picker still reaches these.
	authed := router.Group("/api/v1")
	authed.Use(middleware.AuthMiddleware(userRepo, cfg.JWT.Secret))
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.POST("/subscriptions", subHandler.Submit)
		authed.GET("/subscriptions/mine", subHandler.MyStatus)
	}

	// Tenant-scoped routes: a passing access verdict required.
	scoped := router.Group("/api/v1")
	scoped.Use(middleware.AuthMiddleware(userRepo, cfg.JWT.Secret))
	scoped.Use(middleware.AccessMiddleware(userRepo))
	{
		scoped.POST("/parcels", parcelHandler.Create)
		scoped.GET("/parcels", parcelHandler.List)
		scoped.GET("/parcels/:id", parcelHandler.Get)
		scoped.PUT("/parcels/:id", parcelHandler.Update)
		scoped.DELETE("/parcels/:id", parcelHandler.Delete)
		scoped.POST("/parcels/:id/harvest", harvestHandler.HarvestParcel)

		scoped.POST("/activities", activityHandler.Create)
		scoped.GET("/activities", activityHandler.List)
		scoped.GET("/activities/:id", activityHandler.Get)
		scoped.PUT("/activities/:id", activityHandler.Update)
		scoped.PATCH("/activities/:id/complete", activityHandler.Complete)
		scoped.DELETE("/activities/:id", activityHandler.Delete)

		scoped.POST("/catalog", catalogHandler.Create)
		scoped.GET("/catalog", catalogHandler.List)
		scoped.GET("/catalog/:id", catalogHandler.Get)
		scoped.PUT("/catalog/:id", catalogHandler.Update)
		scoped.POST("/catalog/:id/image", catalogHandler.UploadImage)
		scoped.DELETE("/catalog/:id", catalogHandler.Delete)

		scoped.GET("/harvests", harvestHandler.List)
		scoped.GET("/harvests/:id", harvestHandler.Get)
		scoped.PUT("/harvests/:id", harvestHandler.Update)
		scoped.DELETE("/harvests/:id", harvestHandler.Delete)

		// Collaborators: farmers and the admin delegate under themselves.
		collab := scoped.Group("/collaborators")
		collab.Use(middleware.RequireRole(models.RoleAdmin, models.RoleFarmer))
		{
			collab.POST("", userHandler.CreateCollaborator)
			collab.GET("", userHandler.ListCollaborators)
		}
	}

	// Admin routes.
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware(userRepo, cfg.JWT.Secret))
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/users", userHandler.List)
		admin.POST("/users", userHandler.Create)
		admin.PATCH("/users/:id/approve", userHandler.Approve)
		admin.PATCH("/users/:id/reject", userHandler.Reject)
		admin.DELETE("/users/:id", userHandler.Delete)

		admin.GET("/subscriptions/pending", subHandler.ListPending)
		admin.PATCH("/subscriptions/:id/approve", subHandler.Approve)
		admin.PATCH("/subscriptions/:id/reject", subHandler.Reject)
		admin.GET("/subscriptions/statuses", subHandler.UserStatuses)
		admin.PATCH("/users/:id/suspend", subHandler.Suspend)
		admin.PATCH("/users/:id/rehabilitate", subHandler.Rehabilitate)

		admin.GET("/owners-summary", summaryHandler.OwnersSummary)
	}

	return router
}
