// Command sentiscope-api serves classification and analysis history over
// HTTP for the sentiscope client.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spacesedan/sentiscope/config"
	"github.com/spacesedan/sentiscope/internal/api"
	"github.com/spacesedan/sentiscope/internal/clients"
	"github.com/spacesedan/sentiscope/internal/clients/kafka_client"
	"github.com/spacesedan/sentiscope/internal/logging"
	"github.com/spacesedan/sentiscope/internal/monitoring"
	"github.com/spacesedan/sentiscope/internal/sentiment"
	"github.com/spacesedan/sentiscope/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:           "sentiscope-api",
		Short:         "Serve sentiment classification and analysis history",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv(config.AppEnv())
			cfg, err := config.LoadServerConfig()
			logging.InitLogger(os.Stderr, cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if port != 0 {
				cfg.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides PORT)")
	return cmd
}

func serve(ctx context.Context, cfg config.ServerConfig) error {
	var deps []monitoring.Dependency

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	if pinger, ok := st.(monitoring.Pinger); ok {
		deps = append(deps, monitoring.Dependency{Name: cfg.HistoryStore, Pinger: pinger})
	}

	opts := []api.Option{}
	if cfg.ValkeyAddress != "" {
		cache, err := clients.NewValkeyClient(ctx, clients.ValkeyOptions{
			Address:  cfg.ValkeyAddress,
			Password: cfg.ValkeyPassword,
			TLS:      cfg.ValkeyTLS,
		})
		if err != nil {
			slog.Warn("[Main] Classification cache disabled", slog.String("error", err.Error()))
		} else {
			defer cache.Close()
			opts = append(opts, api.WithCache(cache))
			deps = append(deps, monitoring.Dependency{Name: "valkey", Pinger: cache})
		}
	}
	if cfg.KafkaBroker != "" {
		producer, err := kafka_client.NewProducer(kafka_client.KafkaConfig{
			Broker: cfg.KafkaBroker,
			Topic:  cfg.KafkaTopic,
		})
		if err != nil {
			slog.Warn("[Main] Event publishing disabled", slog.String("error", err.Error()))
		} else {
			defer producer.Close()
			opts = append(opts, api.WithPublisher(producer))
		}
	}

	monitor := monitoring.NewMonitor(time.Second*monitoring.HEALTHCHECK_TIMER, deps...)
	go monitor.Run(ctx)
	opts = append(opts, api.WithHealth(monitor.Healthy))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.NewServer(st, sentiment.NewVaderClassifier(), opts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("[Main] Listening",
			slog.Int("port", cfg.Port),
			slog.String("store", cfg.HistoryStore))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("[Main] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.ServerConfig) (store.Store, error) {
	switch cfg.HistoryStore {
	case "postgres":
		pool, err := clients.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st, err := store.NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return st, nil
	case "dynamodb":
		client, err := clients.NewDynamoDBClient(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
		if err != nil {
			return nil, err
		}
		return store.NewDynamoStore(client, cfg.DynamoTable), nil
	default:
		slog.Warn("[Main] Using in-memory history; analyses are lost on restart")
		return store.NewMemoryStore(), nil
	}
}
