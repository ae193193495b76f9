package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adiwardana/lyra/adapters/capture"
	"github.com/adiwardana/lyra/adapters/memory"
	"github.com/adiwardana/lyra/adapters/mongo"
	"github.com/adiwardana/lyra/adapters/tts"
	"github.com/adiwardana/lyra/config"
	"github.com/adiwardana/lyra/domain/repositories"
	"github.com/adiwardana/lyra/internal/api"
	"github.com/adiwardana/lyra/internal/auth"
	"github.com/adiwardana/lyra/internal/gateway"
	"github.com/adiwardana/lyra/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()

	transcriber := buildTranscriber(ctx, cfg, logger)
	generator := buildGenerator(ctx, logger)
	voice := buildVoice(logger)

	var store repositories.ExchangeStore
	if cfg.Mongo.Enabled {
		client, err := mongo.NewClient(ctx, mongo.NewConfigFromEnv(), logger)
		if err != nil {
			return err
		}
		defer client.Close(context.Background())
		store = mongo.NewExchangeRepository(client.Database)
	} else {
		logger.Info("MongoDB disabled, archiving exchanges in memory")
		store = memory.NewExchangeStore()
	}

	authn, err := auth.NewAuthenticatorFromEnv()
	if err != nil {
		// Tokens stay valid only for this process; fine for development
		logger.Warn("JWT_SECRET not configured, using an ephemeral secret")
		authn = auth.NewAuthenticator([]byte(uuid.NewString()), 0)
	}

	clientSecret := cfg.Auth.ClientSecret
	if clientSecret == "" {
		clientSecret = uuid.NewString()
		logger.Warn("No client secret configured, generated one for this run",
			zap.String("client_secret", clientSecret))
	}

	pipeCfg := pipelineConfig(cfg)

	gw := gateway.NewGateway(transcriber, generator, voice, store, authn, pipeCfg, logger)
	go gw.Run()

	factory := func() *usecase.Pipeline {
		return usecase.NewPipeline(
			capture.NewMock(),
			transcriber,
			generator,
			tts.NewMockSynthesizer(),
			pipeCfg,
			logger,
		)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := api.NewServer(authn, clientSecret, store, factory, gw, logger)
	server.InitRoutes(e)

	port := cfg.Server.Port

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
	return nil
}
