package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ffmpeg-architect/internal/command"
)

type previewOutput struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	Warnings []string `json:"warnings"`
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var doc documentFlags
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the ffmpeg command for a configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfiguration(doc)
			if err != nil {
				return err
			}
			out := previewOutput{
				Command:  command.Display(cfg),
				Args:     command.BuildArgs(cfg),
				Warnings: command.Validate(cfg),
			}
			if ctx.flags.json {
				return writeJSON(cmd, out)
			}
			fmt.Fprintln(cmd.OutOrStdout(), commandStyle.Render(out.Command))
			printWarnings(cmd.ErrOrStderr(), out.Warnings)
			return nil
		},
	}
	addDocumentFlags(cmd, &doc)
	return cmd
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var doc documentFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a configuration for conflicting or missing settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfiguration(doc)
			if err != nil {
				return err
			}
			warnings := command.Validate(cfg)
			if ctx.flags.json {
				if err := writeJSON(cmd, map[string]any{"warnings": warnings}); err != nil {
					return err
				}
			} else {
				printWarnings(cmd.OutOrStdout(), warnings)
			}
			if len(warnings) > 0 {
				return fmt.Errorf("configuration has %d warning(s)", len(warnings))
			}
			if !ctx.flags.json {
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("configuration ok"))
			}
			return nil
		},
	}
	addDocumentFlags(cmd, &doc)
	return cmd
}
