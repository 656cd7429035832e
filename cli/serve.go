package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/infra/monitoring"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/infra/server"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/retriever"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/config"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/logger"
)

// ServeCmd starts the read-only HTTP API over an ingested store.
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve article lookups and vector search over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("host", "", "Host interface to bind")
	cmd.Flags().Int("port", 0, "Port to listen on")
	cmd.Flags().Bool("metrics", false, "Expose prometheus metrics on /metrics")
	cmd.Flags().Bool("no-search", false, "Serve lookups only, without an embedding provider")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	log := logger.FromContext(ctx)
	mon := monitoring.NewMonitoringServiceWithFallback(ctx, monitoring.ConfigFrom(&cfg.Metrics))
	mon.SetAsGlobal()
	defer func() {
		if err := mon.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Failed to shut down monitoring", "error", err)
		}
	}()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	noSearch, err := cmd.Flags().GetBool("no-search")
	if err != nil {
		return err
	}
	var svc *retriever.Service
	if noSearch {
		svc, err = retriever.NewService(store, nil)
	} else {
		emb, embErr := openEmbedder(ctx, cfg)
		if embErr != nil {
			return embErr
		}
		svc, err = retriever.NewService(store, emb)
	}
	if err != nil {
		return err
	}
	srv, err := server.NewServer(ctx, &cfg.Server, svc, store, mon)
	if err != nil {
		return err
	}
	return srv.Run()
}
