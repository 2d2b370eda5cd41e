package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sguter90/agrimaestro/pkg/assistant"
	"github.com/sguter90/agrimaestro/pkg/broker"
	"github.com/sguter90/agrimaestro/pkg/database"
	"github.com/sguter90/agrimaestro/pkg/ingest"
	"github.com/sguter90/agrimaestro/pkg/live"
	"github.com/sguter90/agrimaestro/pkg/rules"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the AgriMaestro server",
	Long:  `Start the AgriMaestro server to receive sensor readings and serve the dashboards.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	app := appFromContext(cmd.Context())
	cfg := app.Config
	logger := app.Logger

	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	dbManager, err := app.DB()
	if err != nil {
		return err
	}

	// Run migrations
	if err := dbManager.Init(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	modes, err := cfg.RuleModes()
	if err != nil {
		return err
	}
	engine, err := rules.NewEngine(modes)
	if err != nil {
		return fmt.Errorf("failed to build rule engine: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	var wg sync.WaitGroup

	publishers := ingest.MultiPublisher{}
	routeOpts := []RouteOption{
		WithAllowedOrigins(splitOrigins(cfg.Server.AllowedOrigins)),
		WithAssistant(assistant.New(assistant.Options{
			APIKey:      cfg.Assistant.APIKey,
			BaseURL:     cfg.Assistant.BaseURL,
			Model:       cfg.Assistant.Model,
			MaxTokens:   cfg.Assistant.MaxTokens,
			Temperature: cfg.Assistant.Temperature,
		}, logger.With().Str("component", "assistant").Logger())),
	}

	if cfg.Live.Enabled {
		hub := live.NewHub(logger.With().Str("component", "live").Logger())
		listener := live.NewListener(cfg.DSN(), database.EventChannel, hub, logger.With().Str("component", "listener").Logger())

		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Run(ctx)
		}()
		go func() {
			defer wg.Done()
			listener.Run(ctx)
		}()

		publishers = append(publishers, database.NewAdvisoryNotifier(dbManager))
		routeOpts = append(routeOpts, WithLiveHub(hub))
	}

	if cfg.MQTT.Broker != "" {
		mqttPublisher, err := broker.Connect(broker.Options{
			BrokerURL:   cfg.MQTTBrokerURL(),
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
		}, logger.With().Str("component", "mqtt").Logger())
		if err != nil {
			return err
		}
		defer mqttPublisher.Close()
		publishers = append(publishers, mqttPublisher)
	}

	coordinator := ingest.NewCoordinator(dbManager, engine, logger, ingest.WithPublisher(publishers))
	ingester := ingest.NewLoggingIngester(coordinator, logger)

	// Setup Router
	tokens := NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	routeManager := NewRouteManager(dbManager, ingester, tokens, logger, routeOpts...)
	routeManager.Setup()

	addr := ":" + cfg.Server.Port

	// Start server
	server := &http.Server{
		Handler:      routeManager.Router,
		Addr:         addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info().Msg("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	logger.Info().
		Str("addr", addr).
		Bool("live", cfg.Live.Enabled).
		Bool("mqtt", cfg.MQTT.Broker != "").
		Msg("Starting AgriMaestro server")

	err = server.ListenAndServe()
	cancel()
	wg.Wait()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func splitOrigins(value string) []string {
	var origins []string
	for _, origin := range strings.Split(value, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
