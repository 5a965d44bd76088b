package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/consentgate/internal/config"
	"github.com/dropDatabas3/consentgate/internal/http/server"
	"github.com/dropDatabas3/consentgate/internal/observability/logger"
)

func main() {
	var (
		cfgPath string
		envFile string
	)

	root := &cobra.Command{
		Use:   "consentgate",
		Short: "Gate de consentimiento y orquestación de intents de calendario",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "ruta al YAML de configuración (opcional)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "ruta a .env (opcional)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			// .env best-effort: en prod los secretos vienen del entorno
			if envFile != "" {
				_ = godotenv.Load(envFile)
			}

			var cfg *config.Config
			var err error
			if cfgPath != "" {
				cfg, err = config.Load(cfgPath)
			} else {
				cfg, err = config.FromEnv()
			}
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			logger.Init(logger.Config{Env: cfg.App.Env, Level: os.Getenv("LOG_LEVEL")})
			defer logger.Sync()
			log := logger.L()

			handler, cleanup, err := server.Build(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("wiring: %w", err)
			}
			defer cleanup()

			srv := &http.Server{
				Addr:         cfg.Server.Addr,
				Handler:      handler,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("server listening", logger.String("addr", cfg.Server.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				log.Info("shutting down", logger.String("signal", sig.String()))
				ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}

	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
