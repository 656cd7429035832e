package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/config"
	"gopkg.in/yaml.v3"
)

type configEntry struct {
	Key    string `json:"key"    yaml:"key"`
	Value  any    `json:"value"  yaml:"value"`
	Source string `json:"source" yaml:"source"`
	EnvVar string `json:"env,omitempty" yaml:"env,omitempty"`
}

// ConfigCmd groups configuration diagnostics.
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration diagnostics",
	}
	cmd.AddCommand(configShowCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show resolved configuration values and where they came from",
		Long: `Display every configuration value with the layer that set it (cli, yaml, env or
default). Credentials are redacted.`,
		Args: cobra.NoArgs,
		RunE: runConfigShow,
	}
	cmd.Flags().Bool("yaml", false, "Print the resolved configuration as YAML")
	return cmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	service := config.NewService()
	cfg, err := loadConfigWith(ctx, service, cmd, configFile)
	if err != nil {
		return err
	}
	entries, err := configEntries(cfg, service)
	if err != nil {
		return err
	}
	asYAML, err := cmd.Flags().GetBool("yaml")
	if err != nil {
		return err
	}
	if asYAML {
		return writeConfigYAML(cmd.OutOrStdout(), entries)
	}
	format, err := DetectOutputFormat(cmd)
	if err != nil {
		return err
	}
	if format == OutputFormatJSON {
		return writeJSON(cmd.OutOrStdout(), entries)
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Key, fmt.Sprint(e.Value), e.Source, e.EnvVar})
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"KEY", "VALUE", "SOURCE", "ENV"}, rows))
	return err
}

func configEntries(cfg *config.Config, service config.Service) ([]configEntry, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to flatten configuration: %w", err)
	}
	envVars := map[string]string{}
	for _, m := range config.GenerateEnvMappings() {
		envVars[m.ConfigPath] = m.EnvVar
	}
	keys := k.Keys()
	sort.Strings(keys)
	entries := make([]configEntry, 0, len(keys))
	for _, key := range keys {
		value := k.Get(key)
		if config.IsSensitiveConfigPath(key) {
			value = config.SensitiveString(fmt.Sprint(value)).String()
		}
		entries = append(entries, configEntry{
			Key:    key,
			Value:  value,
			Source: string(service.GetSource(key)),
			EnvVar: envVars[key],
		})
	}
	return entries, nil
}

func writeConfigYAML(w io.Writer, entries []configEntry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return err
	}
	return enc.Close()
}
