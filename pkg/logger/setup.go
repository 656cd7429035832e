package logger

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func SetupLogger(logLevel LogLevel, logJSON, logSource bool) {
	// Initialize logger with development-friendly settings
	_ = Init(&Config{
		Level:      logLevel,
		Output:     os.Stderr,
		JSON:       logJSON,
		AddSource:  logSource,
		TimeFormat: "15:04:05",
	})
}

func GetLoggerConfig(cmd *cobra.Command) (LogLevel, bool, bool, error) {
	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return NoLevel, false, false, fmt.Errorf("failed to get log-level flag: %w", err)
	}

	logJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return NoLevel, false, false, fmt.Errorf("failed to get log-json flag: %w", err)
	}

	logSource, err := cmd.Flags().GetBool("log-source")
	if err != nil {
		return NoLevel, false, false, fmt.Errorf("failed to get log-source flag: %w", err)
	}

	return LogLevel(logLevel), logJSON, logSource, nil
}
