package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	plantidentifier "github.com/menta2k/plant-identifier"
	"github.com/menta2k/plant-identifier/internal/config"
	"github.com/menta2k/plant-identifier/internal/logger"
	"github.com/menta2k/plant-identifier/internal/server"
)

func main() {
	var configPath, in, backend, model, url string
	var port int

	flag.StringVar(&configPath, "config", "", "optional config file (json|yaml|toml) with the same keys as the environment")
	flag.StringVar(&in, "in", "", "identify a single image path or URL and exit instead of serving")
	flag.StringVar(&backend, "backend", "", "override MODEL_BACKEND: gemini, ollama or llamacpp")
	flag.StringVar(&model, "model", "", "override MODEL_NAME")
	flag.StringVar(&url, "url", "", "override MODEL_URL")
	flag.IntVar(&port, "port", 0, "override SERVER_PORT")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "CRITICAL: Failed to load config:", err)
		os.Exit(1)
	}
	applyFlags(cfg, backend, model, url, port)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "CRITICAL: Invalid config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "CRITICAL: Failed to initialize logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting plant identifier",
		zap.String("version", plantidentifier.GetVersion()),
		zap.String("backend", cfg.Model.Backend),
		zap.String("model", cfg.Model.Name))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pi, err := plantidentifier.New(ctx, plantidentifier.Options{
		Backend:           cfg.Model.Backend,
		Model:             cfg.Model.Name,
		URL:               cfg.Model.URL,
		APIKey:            cfg.Model.APIKey,
		Timeout:           cfg.Model.Timeout,
		MaxImageDimension: cfg.Image.MaxDimension,
		ImageQuality:      cfg.Image.Quality,
	})
	if err != nil {
		log.Fatal("Failed to create identifier", zap.Error(err))
	}

	if in != "" {
		if err := identifyOnce(ctx, pi, in); err != nil {
			log.Fatal("Failed to identify plant", zap.String("source", in), zap.Error(err))
		}
		return
	}

	srv := server.New(cfg, pi.Identifier(), log)

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-groupCtx.Done()
		log.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("Server failed", zap.Error(err))
	}

	log.Info("Server exited")
}

func applyFlags(cfg *config.Config, backend, model, url string, port int) {
	if backend != "" {
		cfg.Model.Backend = backend
	}
	if model != "" {
		cfg.Model.Name = model
	}
	if url != "" {
		cfg.Model.URL = url
	}
	if port != 0 {
		cfg.Server.Port = port
	}
}

func identifyOnce(ctx context.Context, pi *plantidentifier.PlantIdentifier, source string) error {
	_, raw, err := pi.IdentifyFile(ctx, source)
	if err != nil && raw == nil {
		return err
	}

	// Print whatever JSON the model gave, even when it is not a plant record
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return err
	}
	fmt.Println(out.String())
	return nil
}
