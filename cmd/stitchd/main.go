package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/meanmdevs/stitching/internal/config"
	"github.com/meanmdevs/stitching/internal/dedupe"
	"github.com/meanmdevs/stitching/internal/engine"
	"github.com/meanmdevs/stitching/internal/handlers"
	"github.com/meanmdevs/stitching/internal/registry"
	"github.com/meanmdevs/stitching/internal/scheduler"
	"github.com/meanmdevs/stitching/internal/store"
)

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Fisheye Stitcher Service")
	log.Printf("  HTTP address: %s", cfg.HTTPAddr)
	log.Printf("  Data directory: %s", cfg.DataDir)
	log.Printf("  Stitcher binary: %s", cfg.StitcherBinary)
	log.Printf("  Transform timeout: %s", cfg.TransformTimeout)

	artifacts, err := store.NewFilesystemStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to initialize artifact store: %v", err)
	}

	stitcher := engine.NewStitcher(cfg.StitcherBinary, cfg.MLSMapPath)
	if binaryExists, mapExists := stitcher.Healthy(); !binaryExists || !mapExists {
		log.Printf("Warning: stitcher binary present=%t, mls map present=%t", binaryExists, mapExists)
	}

	sched := scheduler.New(
		registry.New(),
		artifacts,
		engine.New(stitcher),
		cfg.TransformTimeout,
		cfg.MaxIntensity,
		cfg.MaxConcurrent,
	)

	var tracker *dedupe.Tracker
	if cfg.DatabaseURL != "" {
		tracker, err = dedupe.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize submission tracker: %v", err)
		}
		defer tracker.Close()
		log.Printf("Submission tracking enabled")
	}

	handler := handlers.New(artifacts, sched, stitcher, tracker, cfg.MaxUploadBytes)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.Routes(),
	}

	go func() {
		log.Printf("Server ready on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
