package cli

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCLIFlags(t *testing.T) {
	t.Run("Should collect only changed flags bound to configuration", func(t *testing.T) {
		cmd := &cobra.Command{Use: "test"}
		cmd.Flags().String("backend", "", "")
		cmd.Flags().Int("embedding-dim", 0, "")
		cmd.Flags().Bool("allow-partial", false, "")
		cmd.Flags().Duration("call-timeout", 0, "")
		cmd.Flags().String("neo4j-uri", "", "")
		cmd.Flags().Int("top-k", 0, "")
		require.NoError(t, cmd.ParseFlags([]string{
			"--backend", "postgres",
			"--embedding-dim", "1024",
			"--allow-partial",
			"--call-timeout", "5s",
			"--top-k", "3",
		}))

		flags := map[string]any{}
		extractCLIFlags(cmd, flags)
		assert.Equal(t, map[string]any{
			"backend":       "postgres",
			"embedding-dim": 1024,
			"allow-partial": true,
			"call-timeout":  5 * time.Second,
		}, flags)
	})
}

func TestIsPathWithinDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Run("Should accept nested paths and the directory itself", func(t *testing.T) {
		assert.True(t, isPathWithinDirectory(filepath.Join(dir, ".env"), dir))
		assert.True(t, isPathWithinDirectory(dir, dir))
	})
	t.Run("Should reject escaping paths", func(t *testing.T) {
		assert.False(t, isPathWithinDirectory(filepath.Join(dir, "..", "other.env"), dir))
		assert.False(t, isPathWithinDirectory(dir+"-sibling/.env", dir))
	})
}
