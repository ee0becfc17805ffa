package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/joshua-takyi/rsvpd/internal/config"
	"github.com/joshua-takyi/rsvpd/internal/connect"
	"github.com/joshua-takyi/rsvpd/internal/container"
	"github.com/joshua-takyi/rsvpd/internal/helpers"
	"github.com/joshua-takyi/rsvpd/internal/metrics"
	"github.com/joshua-takyi/rsvpd/internal/models"
	"github.com/joshua-takyi/rsvpd/internal/routes"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// Load environment variables
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("Starting rsvpd API server", "environment", cfg.Environment, "store", cfg.StoreDriver)

	metrics.Init()

	supaClient, err := connect.InitSupabase(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	if err != nil {
		logger.Error("Failed to connect to Supabase", "error", err)
		os.Exit(1)
	}
	supa := models.SupabaseNewRepo(supaClient, cfg.SupabaseURL, cfg.SupabaseAnonKey)
	logger.Info("Connected to Supabase successfully")

	deps := container.Deps{
		Directory: supa,
		Users:     supa,
		Verifier:  helpers.NewJWTVerifier(cfg.SupabaseJWTSecret, cfg.SupabaseURL),
	}

	var mongoClient *mongo.Client
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		deps.Events = models.NewMemoryRepo()
		logger.Warn("Using in-memory event store, data is lost on restart")
	default:
		mongoClient, err = connect.MongoDBConnect(context.Background(), cfg.MongoDBURI, cfg.MongoDBPassword)
		if err != nil {
			logger.Error("Failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		repo := models.MongodbNewRepo(mongoClient, cfg.MongoDBName)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Warn("Failed to ensure event indexes", "error", err)
		}
		cancel()
		deps.Events = repo
		logger.Info("Connected to MongoDB successfully", "database", cfg.MongoDBName)
	}

	if cfg.HasCloudinary() {
		cld, err := connect.CloudinaryCredentials(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			logger.Error("Failed to connect to Cloudinary", "error", err)
			os.Exit(1)
		}
		deps.Uploader = helpers.NewCloudinaryUploader(cld)
	} else {
		logger.Warn("Cloudinary is not configured, image uploads are disabled")
	}

	if cfg.GeminiAPIKey != "" {
		deps.Generator = connect.NewGeminiClient(connect.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		})
	} else {
		logger.Warn("GEMINI_API_KEY is not set, enhancement returns the original text")
	}

	appContainer := container.NewContainer(cfg, logger, deps)
	router := routes.SetupRoutes(appContainer)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	appContainer.Close()
	if err := connect.MongoDBDisconnect(mongoClient); err != nil {
		logger.Error("Error disconnecting from MongoDB", "error", err)
	}

	logger.Info("Server exited")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.SlogLevel(),
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	return slog.New(handler)
}
