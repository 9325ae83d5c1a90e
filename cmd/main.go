package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/wras-dhh/server/adapters/mongo"
	"github.com/wras-dhh/server/adapters/stt"
	"github.com/wras-dhh/server/adapters/translate"
	"github.com/wras-dhh/server/adapters/tts"
	"github.com/wras-dhh/server/internal/api"
	"github.com/wras-dhh/server/internal/catalog"
	"github.com/wras-dhh/server/internal/config"
	"github.com/wras-dhh/server/internal/media"
	"github.com/wras-dhh/server/internal/progress"
	"github.com/wras-dhh/server/internal/publish"
	"github.com/wras-dhh/server/internal/worker"
	"github.com/wras-dhh/server/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment")
	}
	cfg := config.Load()

	ctx := context.Background()

	// Catalog store
	mongoClient, err := mongo.NewClient(logger)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	templates := mongo.NewTemplateRepository(mongoClient.Database)
	clips := mongo.NewCatalogRepository(mongoClient.Database)

	// Google Cloud adapters
	translator, err := translate.NewGoogleTranslator(ctx, logger)
	if err != nil {
		logger.Fatal("failed to create translator", zap.Error(err))
	}
	synthesizer, err := tts.NewGoogleSynthesizer(ctx, tts.GoogleSynthesizerConfig{Voices: cfg.Voices}, logger)
	if err != nil {
		logger.Fatal("failed to create synthesizer", zap.Error(err))
	}
	recognizer, err := stt.NewGoogleRecognizer(ctx, logger)
	if err != nil {
		logger.Fatal("failed to create recognizer", zap.Error(err))
	}

	// Media pipeline
	runner := media.NewExecRunner(logger)
	concat := media.NewAudioConcatenator(runner, cfg.FFmpegBin, logger)
	videoBuilder := media.NewVideoBuilder(runner, cfg.FFmpegBin, cfg.ISLDatasetDir, cfg.ISLVideoDir, logger)

	tracker := progress.NewTracker(logger)
	pool := worker.NewPool(cfg.Workers, 4*cfg.Workers, cfg.JobTimeout, logger)
	resolver := catalog.NewResolver(clips, logger)
	publisher := publish.NewPublisher(cfg.PublishDirs, cfg.PublishMount, logger)

	// Usecase services
	announcements := usecase.NewAnnouncementService(templates, clips, resolver, concat, tracker, pool, cfg, logger)
	audioFiles := usecase.NewAudioFileService(clips, translator, synthesizer, tracker, pool, cfg, logger)
	signLanguage := usecase.NewSignLanguageService(clips, translator, synthesizer, recognizer, videoBuilder, concat, cfg, logger)
	templateJobs := usecase.NewTemplateService(templates, clips, translator, synthesizer, tracker, pool, cfg, logger)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Generated media is served straight off disk.
	e.Static(cfg.AudioMount, cfg.AudioRoot)
	e.Static(cfg.ISLVideoMount, cfg.ISLVideoDir)
	e.Static(cfg.PublishMount, cfg.PublishDirs[0])

	api.InitRoutes(e, &api.Handlers{
		Announcements: announcements,
		AudioFiles:    audioFiles,
		SignLanguage:  signLanguage,
		Templates:     templates,
		TemplateJobs:  templateJobs,
		Publisher:     publisher,
		Logger:        logger,
	})

	// Periodic cleanup of generated media past the retention window.
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, dir := range []string{
					cfg.ISLVideoDir,
					cfg.MergedISLDir(),
					filepath.Join(cfg.AudioRoot, config.MergedSpeechISLSubdir),
				} {
					media.RemoveOlderThan(dir, cfg.Retention, logger)
				}
			case <-cleanupDone:
				return
			}
		}
	}()

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")
	close(cleanupDone)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.Warn("worker pool did not drain in time", zap.Error(err))
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := mongoClient.Close(shutdownCtx); err != nil {
		logger.Error("Failed to close MongoDB connection", zap.Error(err))
	}
	translator.Close()
	synthesizer.Close()
	recognizer.Close()

	logger.Info("Server exited")
}
