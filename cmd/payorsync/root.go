package main

import (
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/payorsync/internal/logging"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel  string
	logFormat string
}

// newRootCmd builds the command tree. Results go to the command's output
// stream and logs to its error stream.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "payorsync",
		Short: "Reconcile payor agreement surcharge workbooks",
		Long: `payorsync compares a complete payor agreement workbook against a
changes-only workbook, reports which surcharge multipliers changed, and
writes an import workbook that closes each superseded row and opens its
replacement on the comparison date.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat))
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format: text, json")
	rootCmd.SetVersionTemplate("payorsync {{.Version}}\n")

	rootCmd.AddCommand(newCompareCmd(), newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "payorsync %s\n", version)
		},
	}
}
