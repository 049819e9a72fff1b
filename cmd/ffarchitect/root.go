package main

import (
	"github.com/spf13/cobra"

	"ffmpeg-architect/internal/ffmpeg"
)

func newRootCommand() *cobra.Command {
	return newRootCommandWithRunner(nil)
}

// newRootCommandWithRunner builds the command tree; a nil runner executes
// the real binaries.
func newRootCommandWithRunner(runner ffmpeg.Runner) *cobra.Command {
	var flags rootFlags
	ctx := newCommandContext(&flags, runner)

	rootCmd := &cobra.Command{
		Use:           "ffarchitect",
		Short:         "Build, check, and run ffmpeg commands from configuration documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.settings, "settings", "s", "", "Settings file path (TOML)")
	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Configuration document (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flags.json, "json", false, "Write machine-readable JSON output")

	rootCmd.AddCommand(newPreviewCommand(ctx))
	rootCmd.AddCommand(newValidateCommand(ctx))
	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newPresetCommand(ctx))
	rootCmd.AddCommand(newEncodersCommand(ctx))
	rootCmd.AddCommand(newProbeCommand(ctx))
	rootCmd.AddCommand(newVersionCommand(ctx))

	return rootCmd
}
