package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/persist"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/config"
)

type labelStats struct {
	Label         string `json:"label"`
	Relationship  string `json:"relationship"`
	Nodes         int64  `json:"nodes"`
	Relationships int64  `json:"relationships"`
}

type storeStats struct {
	Backend     string       `json:"backend"`
	Regulations int64        `json:"regulations"`
	Countries   int64        `json:"countries"`
	Labels      []labelStats `json:"labels"`
}

// StatsCmd prints node and relationship counts per unit label.
func StatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show node and relationship counts per label",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	counts, err := persist.New(store, knowledge.UnitKinds(), cfg.Embedder.Dimension).Counts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count units: %w", err)
	}
	ref, err := store.CountReference(ctx)
	if err != nil {
		return fmt.Errorf("failed to count reference data: %w", err)
	}
	stats := storeStats{
		Backend:     cfg.Graph.Backend,
		Regulations: ref.Regulations,
		Countries:   ref.Countries,
		Labels:      make([]labelStats, 0, len(counts)),
	}
	for i := range counts {
		stats.Labels = append(stats.Labels, labelStats{
			Label:         counts[i].Kind.Label,
			Relationship:  counts[i].Kind.Relationship,
			Nodes:         counts[i].Counts.Nodes,
			Relationships: counts[i].Counts.Relationships,
		})
	}
	format, err := DetectOutputFormat(cmd)
	if err != nil {
		return err
	}
	if format == OutputFormatJSON {
		return writeJSON(cmd.OutOrStdout(), stats)
	}
	return writeStatsTable(cmd.OutOrStdout(), &stats)
}

func writeStatsTable(w io.Writer, stats *storeStats) error {
	rows := make([][]string, 0, len(stats.Labels))
	for _, l := range stats.Labels {
		rows = append(rows, []string{
			l.Label,
			l.Relationship,
			strconv.FormatInt(l.Nodes, 10),
			strconv.FormatInt(l.Relationships, 10),
		})
	}
	if _, err := fmt.Fprintln(w, renderTable([]string{"LABEL", "RELATIONSHIP", "NODES", "RELATIONSHIPS"}, rows)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s store: %d regulations, %d countries\n", stats.Backend, stats.Regulations, stats.Countries)
	return err
}
