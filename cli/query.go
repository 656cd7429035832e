package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/retriever"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/config"
)

// LookupCmd prints the full text of one article.
func LookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "lookup <family> <article>",
		Short:   "Print the text of an article by number",
		Example: "  migrantnav lookup dublin 17\n  migrantnav lookup geneva 1A",
		Args:    cobra.ExactArgs(2),
		RunE:    runLookup,
	}
}

// SearchCmd runs a vector similarity search against one family index.
func SearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "search <family> <query...>",
		Short:   "Find the units closest to a question",
		Example: `  migrantnav search dublin "which state examines my application"`,
		Args:    cobra.MinimumNArgs(2),
		RunE:    runSearch,
	}
	cmd.Flags().IntP("top-k", "k", 0, "Number of results (default depends on the family)")
	return cmd
}

func runLookup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	svc, err := retriever.NewService(store, nil)
	if err != nil {
		return err
	}
	article, err := svc.Article(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	format, err := DetectOutputFormat(cmd)
	if err != nil {
		return err
	}
	if format == OutputFormatJSON {
		return writeJSON(cmd.OutOrStdout(), article)
	}
	title := headerStyle.Render(fmt.Sprintf("%s article %s", article.Family, article.Ref))
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n%s\n", title, article.Text)
	return err
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	k, err := cmd.Flags().GetInt("top-k")
	if err != nil {
		return fmt.Errorf("failed to get top-k flag: %w", err)
	}
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	emb, err := openEmbedder(ctx, cfg)
	if err != nil {
		return err
	}
	svc, err := retriever.NewService(store, emb)
	if err != nil {
		return err
	}
	results, err := svc.Search(ctx, args[0], strings.Join(args[1:], " "), k)
	if err != nil {
		return err
	}
	format, err := DetectOutputFormat(cmd)
	if err != nil {
		return err
	}
	if format == OutputFormatJSON {
		if results == nil {
			results = []retriever.Result{}
		}
		return writeJSON(cmd.OutOrStdout(), results)
	}
	rows := make([][]string, 0, len(results))
	for i := range results {
		r := &results[i]
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(r.Score, 'f', 3, 64),
			strconv.Itoa(r.Page),
			truncate(strings.Join(strings.Fields(r.Text), " "), 90),
		})
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "SCORE", "PAGE", "TEXT"}, rows))
	return err
}
