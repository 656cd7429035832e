package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/ingest"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/sourcefile"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/pdftext"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/config"
)

type segmentPreview struct {
	Source    string        `json:"source"`
	Path      string        `json:"path"`
	Pages     int           `json:"pages"`
	Segmented int           `json:"segmented"`
	Skipped   int           `json:"skipped"`
	Units     []previewUnit `json:"units"`
}

type previewUnit struct {
	ID    string `json:"id"`
	Page  int    `json:"page"`
	Ref   string `json:"ref,omitempty"`
	Topic string `json:"topic,omitempty"`
	Chars int    `json:"chars"`
	Text  string `json:"text"`
}

// SegmentCmd previews how a source document is split, without the embedder or store.
func SegmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "segment <source>",
		Short:     "Preview the units extracted from one source document",
		Args:      cobra.ExactArgs(1),
		ValidArgs: sourceKeys(),
		RunE:      runSegment,
	}
}

func sourceKeys() []string {
	srcs := knowledge.Sources()
	keys := make([]string, 0, len(srcs))
	for i := range srcs {
		keys = append(keys, srcs[i].Key)
	}
	return keys
}

func runSegment(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	src, err := knowledge.SourceByKey(args[0])
	if err != nil {
		return fmt.Errorf("%w (known sources: %s)", err, strings.Join(sourceKeys(), ", "))
	}
	paths, err := sourcefile.New(&cfg.Sources).Resolve(ctx, []knowledge.Source{src})
	if err != nil {
		return err
	}
	path := paths[src.Key]
	extractor := pdftext.New(cfg.Sources.MaxRunes)
	result, err := extractor.ExtractFile(ctx, path)
	if err != nil {
		return err
	}
	prepared, err := ingest.Prepare(ctx, src, result.Pages)
	if err != nil {
		return err
	}
	preview := buildPreview(src, path, len(result.Pages), &prepared)
	format, err := DetectOutputFormat(cmd)
	if err != nil {
		return err
	}
	if format == OutputFormatJSON {
		return writeJSON(cmd.OutOrStdout(), preview)
	}
	return writePreviewTable(cmd.OutOrStdout(), preview)
}

func buildPreview(src knowledge.Source, path string, pages int, prepared *ingest.Prepared) segmentPreview {
	preview := segmentPreview{
		Source:    src.Key,
		Path:      path,
		Pages:     pages,
		Segmented: prepared.Segmented,
		Skipped:   prepared.Skipped,
		Units:     make([]previewUnit, 0, len(prepared.Units)),
	}
	for i := range prepared.Units {
		u := &prepared.Units[i]
		ref := u.ArticleLabel
		if ref == "" && u.ArticleNumber != nil {
			ref = strconv.Itoa(*u.ArticleNumber)
		}
		preview.Units = append(preview.Units, previewUnit{
			ID:    u.ID,
			Page:  u.Page,
			Ref:   ref,
			Topic: u.Topic,
			Chars: len([]rune(u.Text)),
			Text:  u.Text,
		})
	}
	return preview
}

func writePreviewTable(w io.Writer, preview segmentPreview) error {
	rows := make([][]string, 0, len(preview.Units))
	for i := range preview.Units {
		u := &preview.Units[i]
		rows = append(rows, []string{
			u.ID[:min(len(u.ID), 12)],
			strconv.Itoa(u.Page),
			u.Ref,
			u.Topic,
			strconv.Itoa(u.Chars),
			truncate(strings.Join(strings.Fields(u.Text), " "), 60),
		})
	}
	headers := []string{"ID", "PAGE", "REF", "TOPIC", "CHARS", "TEXT"}
	if _, err := fmt.Fprintln(w, renderTable(headers, rows)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s: %d pages, %d segmented, %d skipped\n",
		preview.Source, preview.Pages, preview.Segmented, preview.Skipped)
	return err
}
