package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventcontract/contract-api/internal/activitylog"
	"github.com/eventcontract/contract-api/internal/auth"
	"github.com/eventcontract/contract-api/internal/config"
	"github.com/eventcontract/contract-api/internal/identifier"
	"github.com/eventcontract/contract-api/internal/notification"
	"github.com/eventcontract/contract-api/internal/server"
	"github.com/eventcontract/contract-api/internal/utils/db"
	"github.com/spf13/cobra"
)

func migrateCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Cria ou atualiza as tabelas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(*envFile)
			gdb, err := db.GetDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := server.Migrate(gdb); err != nil {
				return fmt.Errorf("erro no AutoMigrate: %w", err)
			}
			log.Println("migração concluída")
			return nil
		},
	}
}

func serveCmd(envFile *string) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Sobe a API HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(*envFile)
			logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
			slog.SetDefault(logger)

			gdb, err := db.GetDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if migrate {
				if err := server.Migrate(gdb); err != nil {
					return fmt.Errorf("erro no AutoMigrate: %w", err)
				}
			}

			verifier, err := newVerifier(cfg)
			if err != nil {
				return err
			}
			var notify notification.Dispatcher = notification.LogDispatcher{}
			if cfg.NotifyWebhookURL != "" {
				notify = notification.NewWebhookDispatcher(cfg.NotifyWebhookURL)
			}

			handler := server.NewRouter(server.Deps{
				DB:          gdb,
				Verifier:    verifier,
				Codes:       identifier.RandomCodes{ShortCodeLength: cfg.ShortCodeLength},
				MaxAttempts: cfg.CodeMaxAttempts,
				ContractTTL: cfg.ContractTTL,
				Notify:      notify,
				Activity:    activitylog.NewSlogRecorder(logger),
				CORSOrigins: cfg.CORSAllowedOrigins,
				Logger:      logger,
			})
			return listen(cmd.Context(), cfg.HTTPAddr, handler)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "roda o AutoMigrate antes de subir")
	return cmd
}

func newVerifier(cfg config.Config) (auth.Verifier, error) {
	if cfg.UsesCognito() {
		return auth.NewCognitoVerifier(cfg.CognitoRegion, cfg.CognitoUserPoolID, cfg.CognitoAppClientID)
	}
	return auth.NewHMACVerifier(cfg.JWTSecret)
}

// listen roda até SIGINT/SIGTERM e então drena as conexões abertas.
func listen(ctx context.Context, addr string, handler http.Handler) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Servidor rodando em %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
