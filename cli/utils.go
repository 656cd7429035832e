package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/embedder"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/graphdb"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/config"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/logger"
)

// extractCLIFlags collects the flags explicitly set by the user that map onto a
// configuration path.
func extractCLIFlags(cmd *cobra.Command, flags map[string]any) {
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if _, ok := config.CLIFlagPath(f.Name); !ok {
			return
		}
		var (
			value any
			err   error
		)
		switch f.Value.Type() {
		case "int":
			value, err = cmd.Flags().GetInt(f.Name)
		case "bool":
			value, err = cmd.Flags().GetBool(f.Name)
		case "duration":
			value, err = cmd.Flags().GetDuration(f.Name)
		default:
			value = f.Value.String()
		}
		if err == nil {
			flags[f.Name] = value
		}
	})
}

// loadConfig builds the configuration from defaults, the YAML file, the environment
// and the CLI flags, in increasing precedence.
func loadConfig(ctx context.Context, cmd *cobra.Command, configFile string) (*config.Config, error) {
	return loadConfigWith(ctx, config.NewService(), cmd, configFile)
}

func loadConfigWith(
	ctx context.Context,
	service config.Service,
	cmd *cobra.Command,
	configFile string,
) (*config.Config, error) {
	sources := make([]config.Source, 0, 2)
	if configFile != "" {
		sources = append(sources, config.NewYAMLProvider(configFile))
	}
	cliFlags := make(map[string]any)
	extractCLIFlags(cmd, cliFlags)
	if len(cliFlags) > 0 {
		sources = append(sources, config.NewCLIProvider(cliFlags))
	}
	cfg, err := service.Load(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// loadEnvFile loads environment variables from a file with security validation
func loadEnvFile(cmd *cobra.Command) (string, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return "", fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if envFile == "" {
		return "", nil
	}
	pwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	if !filepath.IsAbs(envFile) {
		envFile = filepath.Join(pwd, envFile)
	}
	absPath, err := filepath.Abs(filepath.Clean(envFile))
	if err != nil {
		return "", fmt.Errorf("failed to resolve env file path: %w", err)
	}
	if !isPathWithinDirectory(absPath, pwd) {
		return "", fmt.Errorf("env file path '%s' is outside the project directory", envFile)
	}
	fileInfo, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return absPath, nil
		}
		return "", fmt.Errorf("failed to stat env file: %w", err)
	}
	if !fileInfo.Mode().IsRegular() {
		return "", fmt.Errorf("env file path '%s' is not a regular file", envFile)
	}
	if err := godotenv.Load(absPath); err != nil {
		return "", fmt.Errorf("failed to load env file %s: %w", absPath, err)
	}
	return absPath, nil
}

// isPathWithinDirectory checks if a given path is within the specified directory
func isPathWithinDirectory(path, dir string) bool {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(filepath.Clean(dir))
	if err != nil {
		return false
	}
	if !strings.HasSuffix(absDir, string(filepath.Separator)) {
		absDir += string(filepath.Separator)
	}
	return strings.HasPrefix(absPath, absDir) || absPath == strings.TrimSuffix(absDir, string(filepath.Separator))
}

// openStore connects the configured unit store. The returned closer never fails the
// command; close errors are logged.
func openStore(ctx context.Context, cfg *config.Config) (graphdb.Store, func(), error) {
	store, err := graphdb.New(ctx, graphdb.ConfigFrom(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s store: %w", cfg.Graph.Backend, err)
	}
	closer := func() {
		if err := store.Close(context.WithoutCancel(ctx)); err != nil {
			logger.FromContext(ctx).Warn("Failed to close store", "error", err)
		}
	}
	return store, closer, nil
}

func openEmbedder(ctx context.Context, cfg *config.Config) (*embedder.Adapter, error) {
	emb, err := embedder.New(ctx, embedder.ConfigFrom(&cfg.Embedder))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	if cfg.Embedder.CacheSize > 0 {
		if err := emb.EnableCache(cfg.Embedder.CacheSize); err != nil {
			return nil, fmt.Errorf("failed to enable embedding cache: %w", err)
		}
	}
	return emb, nil
}
