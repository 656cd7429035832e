package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/config"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/logger"
)

// RootCmd returns the migrantnav command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "migrantnav",
		Short: "Legal knowledge ingestion for the MigrantNav assistant",
		Long: `migrantnav turns the asylum law source documents into a graph of regulations,
articles and topic sections with vector indexes, and serves read-only lookups over it.`,
		SilenceUsage:      true,
		PersistentPreRunE: SetupGlobalConfig,
	}
	addGlobalFlags(root)
	root.AddCommand(
		IngestCmd(),
		IndexesCmd(),
		LookupCmd(),
		SearchCmd(),
		SegmentCmd(),
		StatsCmd(),
		ServeCmd(),
		ConfigCmd(),
		VersionCmd(),
	)
	return root
}

func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "migrantnav.yaml", "Path to the configuration file")
	flags.String("env-file", ".env", "Path to the environment variables file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error, disabled)")
	flags.Bool("log-json", false, "Output logs in JSON format")
	flags.Bool("log-source", false, "Include source code location in logs")

	flags.String("data-dir", "", "Directory holding the source PDF documents")
	flags.String("cache-dir", "", "Directory receiving documents downloaded from S3")
	flags.String("s3-region", "", "AWS region used for s3:// source locations")
	flags.String("embedder", "", "Embedding provider (ollama, openai, googleai)")
	flags.String("embedding-model", "", "Embedding model name")
	flags.String("embedder-url", "", "Embedding provider base URL")
	flags.Int("embedding-dim", 0, "Embedding vector dimension")
	flags.String("backend", "", "Unit store backend (neo4j, postgres, memory)")
	flags.String("neo4j-uri", "", "Neo4j connection URI")
	flags.String("neo4j-user", "", "Neo4j username")
	flags.String("neo4j-database", "", "Neo4j database name")
	flags.String("pg-dsn", "", "PostgreSQL connection string")
	flags.String("output", "", "Output format: json or table (default: table on a terminal)")
}

// SetupGlobalConfig loads the env file, configures logging and stores the resolved
// configuration and logger in the command context.
func SetupGlobalConfig(cmd *cobra.Command, _ []string) error {
	if _, err := loadEnvFile(cmd); err != nil {
		return err
	}
	level, logJSON, logSource, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return err
	}
	logger.SetupLogger(level, logJSON, logSource)
	log := logger.GetDefault()
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(ctx, cmd, configFile)
	if err != nil {
		return err
	}
	ctx = logger.ContextWithLogger(ctx, log)
	ctx = config.ContextWithConfig(ctx, cfg)
	cmd.SetContext(ctx)
	log.Debug("Configuration loaded",
		"config_file", configFile,
		"backend", cfg.Graph.Backend,
		"embedder", cfg.Embedder.Provider,
	)
	return nil
}
