package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/version"
)

// VersionCmd prints build information.
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := DetectOutputFormat(cmd)
			if err != nil {
				return err
			}
			if format == OutputFormatJSON {
				return writeJSON(cmd.OutOrStdout(), version.Get())
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "migrantnav %s\n", version.Get())
			return err
		},
	}
}
