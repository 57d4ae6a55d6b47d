// Copyright 2024 go-dataspace
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server provides the serve subcommand, which runs the presentation HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/edc/persistence/badger"
	"github.com/go-dataspace/run-console/edc/session"
	"github.com/go-dataspace/run-console/internal/cfg"
	"github.com/go-dataspace/run-console/internal/cli"
	"github.com/go-dataspace/run-console/logging"
	"github.com/justinas/alice"
	sloghttp "github.com/samber/slog-http"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	listenAddr      = "server.listenAddr"
	port            = "server.port"
	otelEndpoint    = "server.otelEndpoint"
	otelServiceName = "server.otelServiceName"
	shutdownTimeout = 10 * time.Second
)

func init() {
	cfg.AddPersistentFlag(Command, listenAddr, "listen-addr", "Listen address", "0.0.0.0")
	cfg.AddPersistentFlag(Command, port, "port", "Listen port", 8080)
	cfg.AddPersistentFlag(Command, otelEndpoint, "otel-endpoint",
		"OpenTelemetry HTTP collector URL, traces are dropped when empty.", "")
	cfg.AddPersistentFlag(Command, otelServiceName, "otel-service-name",
		"Service name reported to OpenTelemetry.", "run-console")
}

// Command runs the presentation API.
var Command = &cobra.Command{
	Use:   "serve",
	Short: "Run the presentation API.",
	Long: `Runs an HTTP JSON API that starts workflows against the connector, and reports
their progress.`,
	Args: cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cfg.CheckConnectorConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := cli.Load()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(p.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	logger := logging.Extract(ctx)

	otelShutdown, err := setupOTelSDK(ctx, viper.GetString(otelEndpoint), viper.GetString(otelServiceName))
	if err != nil {
		return fmt.Errorf("could not set up opentelemetry: %w", err)
	}
	defer func() {
		if err := otelShutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error("Could not shut down opentelemetry", "err", err)
		}
	}()

	client, err := edc.New(cfg.Connector())
	if err != nil {
		return err
	}
	store, err := badger.New(ctx)
	if err != nil {
		return fmt.Errorf("could not open session store: %w", err)
	}
	manager := session.NewManager(ctx, client, cfg.Session(), store)
	defer manager.Close()

	handler := alice.New(
		sloghttp.Recovery,
		sloghttp.New(logger),
		logging.NewMiddleware(logger),
	).Then(GetRoutes(manager, client))

	addr := fmt.Sprintf("%s:%d", viper.GetString(listenAddr), viper.GetInt(port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 2 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", addr, "connector", viper.GetString(cfg.ConnectorURL))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
