// Package cli wires configuration, telemetry, and the HTTP server into
// cobra commands.
package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/casefold-ai/lexgate/internal/api/handlers"
	"github.com/casefold-ai/lexgate/internal/auth"
	"github.com/casefold-ai/lexgate/internal/backend"
	"github.com/casefold-ai/lexgate/internal/config"
	"github.com/casefold-ai/lexgate/internal/server"
	"github.com/casefold-ai/lexgate/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway server",
		Long:  "Start the lexgate web gateway on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.HasSentry() {
		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: cfg.SentrySampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	backendClient := backend.NewClient(cfg.BackendURL, cfg.BackendAPIKey)
	if err := backendClient.Status(ctx); err != nil {
		log.Printf("backend not reachable at startup (continuing): %v", err)
	} else {
		log.Println("connected to backend")
	}

	codec := auth.NewCookieCodec([]byte(cfg.SessionSecret), cfg.SecureCookies)
	refresher := auth.NewRefresher(cfg.FirebaseAPIKey, cfg.TokenEndpoint)
	identity := auth.NewIdentityClient(cfg.FirebaseAPIKey, cfg.IdentityEndpoint)

	routerCfg := server.RouterConfig{
		SessionCodec:   codec,
		TokenRefresher: refresher,
		StatusChecker:  backendClient,
		AuthHandler:    handlers.NewAuthHandler(identity, codec),
		AgentHandler:   handlers.NewAgentHandler(backendClient),
		ChatHandler:    handlers.NewChatHandler(backendClient),
		SearchHandler:  handlers.NewSearchHandler(backendClient),
		SessionHandler: handlers.NewSessionHandler(backendClient),
		DatasetHandler: handlers.NewDatasetHandler(backendClient),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}
