package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/ingest"
)

func TestDetectOutputFormat(t *testing.T) {
	newCmd := func(value string) *cobra.Command {
		cmd := &cobra.Command{Use: "test"}
		cmd.Flags().String("output", "", "")
		if value != "" {
			require.NoError(t, cmd.Flags().Set("output", value))
		}
		return cmd
	}

	t.Run("Should honour explicit formats", func(t *testing.T) {
		format, err := DetectOutputFormat(newCmd("table"))
		require.NoError(t, err)
		assert.Equal(t, OutputFormatTable, format)
		format, err = DetectOutputFormat(newCmd("json"))
		require.NoError(t, err)
		assert.Equal(t, OutputFormatJSON, format)
	})

	t.Run("Should fall back to JSON outside a terminal", func(t *testing.T) {
		t.Setenv("CI", "true")
		format, err := DetectOutputFormat(newCmd(""))
		require.NoError(t, err)
		assert.Equal(t, OutputFormatJSON, format)
	})

	t.Run("Should reject unknown formats", func(t *testing.T) {
		_, err := DetectOutputFormat(newCmd("yaml"))
		assert.ErrorContains(t, err, "unsupported output format")
	})
}

func TestWriteReportTable(t *testing.T) {
	t.Run("Should list every source with its counts", func(t *testing.T) {
		report := &ingest.Report{
			RunID:  "run-1",
			Status: ingest.StatusPartial,
			Sources: []ingest.SourceReport{
				{Key: "dublin", Label: "Article", Status: ingest.SourceCompleted, Pages: 31, Segmented: 49, Embedded: 49, Persisted: 49, Duration: 2 * time.Second},
				{Key: "charter", Label: "CharterArticle", Status: ingest.SourceFailed, Error: "embedding failed"},
			},
			IndexError: "index unavailable",
		}
		var buf bytes.Buffer
		require.NoError(t, writeReportTable(&buf, report))
		out := buf.String()
		assert.Contains(t, out, "dublin")
		assert.Contains(t, out, "CharterArticle")
		assert.Contains(t, out, "embedding failed")
		assert.Contains(t, out, "run-1")
		assert.Contains(t, out, "not built: index unavailable")
	})
}

func TestTruncate(t *testing.T) {
	t.Run("Should keep short strings", func(t *testing.T) {
		assert.Equal(t, "Artikel", truncate("Artikel", 10))
	})
	t.Run("Should cut on runes", func(t *testing.T) {
		assert.Equal(t, "Grün…", truncate("Grünes Licht", 5))
	})
}
