package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/infra/monitoring"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/ingest"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/persist"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/sourcefile"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/pdftext"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/config"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/logger"
)

// IngestCmd rebuilds the knowledge graph from the source documents.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Reset the store and ingest all source documents",
		Long: `Checks that every source document exists and the store is reachable, wipes the
previous knowledge graph, seeds regulations and countries, then segments, embeds and
persists each document in turn and finally builds the vector indexes.`,
		Args: cobra.NoArgs,
		RunE: runIngest,
	}
	cmd.Flags().Duration("call-timeout", 0, "Timeout for each embedding or store call")
	cmd.Flags().Int("retries", 0, "Attempts per embedding or store call")
	cmd.Flags().Int("embed-concurrency", 0, "Units embedded in parallel")
	cmd.Flags().Bool("allow-partial", false, "Exit successfully when some sources failed")
	cmd.Flags().Bool("metrics", false, "Collect prometheus metrics for the run")
	cmd.Flags().String("metrics-textfile", "", "Write collected metrics to this .prom file")
	return cmd
}

// IndexesCmd creates the vector indexes without touching any unit.
func IndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the vector indexes on an existing store",
		Args:  cobra.NoArgs,
		RunE:  runIndexes,
	}
}

func runIngest(cmd *cobra.Command, _ []string) error {
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
	emb, err := openEmbedder(ctx, cfg)
	if err != nil {
		return err
	}
	extractor := pdftext.New(cfg.Sources.MaxRunes)
	pipeline, err := ingest.NewPipeline(
		store,
		emb,
		sourcefile.New(&cfg.Sources),
		extractor,
		ingest.OptionsFrom(cfg),
	)
	if err != nil {
		return err
	}
	report, runErr := pipeline.Run(ctx)
	if report != nil {
		if err := printReport(cmd, report); err != nil {
			log.Warn("Failed to print report", "error", err)
		}
	}
	if err := mon.WriteTextfile(ctx); err != nil {
		log.Warn("Failed to write metrics textfile", "error", err)
	}
	return runErr
}

func runIndexes(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	p := persist.New(store, knowledge.UnitKinds(), cfg.Embedder.Dimension)
	if err := p.BuildIndexes(ctx); err != nil {
		return fmt.Errorf("failed to build vector indexes: %w", err)
	}
	logger.FromContext(ctx).Info("Vector indexes ready", "dimension", cfg.Embedder.Dimension)
	return nil
}

func printReport(cmd *cobra.Command, report *ingest.Report) error {
	format, err := DetectOutputFormat(cmd)
	if err != nil {
		return err
	}
	if format == OutputFormatJSON {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	return writeReportTable(cmd.OutOrStdout(), report)
}

func writeReportTable(w io.Writer, report *ingest.Report) error {
	rows := make([][]string, 0, len(report.Sources))
	for i := range report.Sources {
		s := &report.Sources[i]
		rows = append(rows, []string{
			s.Key,
			s.Label,
			statusStyle(string(s.Status)).Render(string(s.Status)),
			strconv.Itoa(s.Pages),
			strconv.Itoa(s.Segmented),
			strconv.Itoa(s.Skipped),
			strconv.Itoa(s.Embedded),
			strconv.Itoa(s.Persisted),
			s.Duration.Round(time.Millisecond).String(),
			truncate(s.Error, 60),
		})
	}
	headers := []string{"SOURCE", "LABEL", "STATUS", "PAGES", "SEGMENTED", "SKIPPED", "EMBEDDED", "PERSISTED", "TIME", "ERROR"}
	if _, err := fmt.Fprintln(w, renderTable(headers, rows)); err != nil {
		return err
	}
	indexes := "built"
	if !report.IndexesBuilt {
		indexes = "not built"
		if report.IndexError != "" {
			indexes += ": " + report.IndexError
		}
	}
	_, err := fmt.Fprintf(w, "run %s %s, indexes %s\n",
		report.RunID,
		statusStyle(string(report.Status)).Render(string(report.Status)),
		indexes,
	)
	if err == nil && report.Error != "" {
		_, err = fmt.Fprintf(w, "error: %s\n", report.Error)
	}
	return err
}
