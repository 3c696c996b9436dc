package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/history"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/pipeline"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/server"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/tracking"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chatbot HTTP server",
	Long: `Starts the chatbot API: POST /chat for conversations, GET /chat/ws for
WebSocket sessions, and /vector-store endpoints for index administration.
On startup the vector index is built from the content API unless it is
already populated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Local .env files carry provider keys in development.
		if err := godotenv.Load(); err == nil {
			log.Printf("loaded environment from .env")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		debugf("config: provider=%s model=%s collection=%s port=%d",
			cfg.Provider, cfg.Model, cfg.Chroma.Collection, cfg.Server.Port)

		manager, client, err := buildManager(cfg, nil)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if err := manager.Initialize(ctx, false); err != nil {
			return fmt.Errorf("initializing vector index: %w", err)
		}
		count, _ := manager.Count()
		log.Printf("vector index ready with %d chunks", count)

		provider, err := buildProvider(cfg)
		if err != nil {
			return err
		}

		agent := tracking.NewAgent(client)
		graph := pipeline.NewGraph(provider, manager, agent, cfg.RetrievalK)

		db, err := history.Open(filepath.Join(cfg.DataDir, "capilbot.db"))
		if err != nil {
			return fmt.Errorf("opening conversation database: %w", err)
		}
		defer db.Close()

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			APIKey:   cfg.Server.APIKey,
			AllowAll: cfg.Server.AllowAllOrigins,
		}, graph, manager, history.NewStore(db))

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-stop:
			log.Printf("received %s, shutting down", sig)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
