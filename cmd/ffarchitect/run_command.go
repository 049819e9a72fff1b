package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ffmpeg-architect/internal/command"
	"ffmpeg-architect/internal/domain"
	"ffmpeg-architect/internal/execution"
	"ffmpeg-architect/internal/progress"
	"ffmpeg-architect/internal/store"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var doc documentFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a configuration (batch when several inputs are given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfiguration(doc)
			if err != nil {
				return err
			}
			if !ctx.flags.json {
				printWarnings(cmd.ErrOrStderr(), command.Validate(cfg))
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return ctx.withStore(runCtx, func(st *store.Store) error {
				return ctx.execute(runCtx, cmd, st, cfg)
			})
		},
	}
	addDocumentFlags(cmd, &doc)
	cmd.Flags().Bool("continue-on-error", false, "Keep going after a failed batch item")
	return cmd
}

func (c *commandContext) execute(ctx context.Context, cmd *cobra.Command, st *store.Store, cfg domain.Configuration) error {
	if continueOnError, _ := cmd.Flags().GetBool("continue-on-error"); continueOnError {
		cfg.Parallel = true
	}

	client, err := c.client(ctx, cmd, st)
	if err != nil {
		return err
	}
	logger := c.logger(cmd)
	orchestrator := execution.NewOrchestrator(client, client, st, logger.Named("execution"))

	display := newRunDisplay(cmd.ErrOrStderr(), c.flags.json)
	outcome := orchestrator.Run(ctx, uuid.NewString(), cfg, display.hooks())
	display.finish()

	if c.flags.json {
		if err := writeJSON(cmd, outcome); err != nil {
			return err
		}
	}

	switch outcome.Status {
	case domain.RunStatusCancelled:
		return context.Canceled
	case domain.RunStatusFailed:
		if !c.flags.json {
			fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(progress.Message(outcome.Err.Category, cfg.Language)))
		}
		return fmt.Errorf("run failed: %s", outcome.Message())
	default:
		if !c.flags.json {
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("%d command(s) completed", len(outcome.Items))))
		}
		return nil
	}
}

// runDisplay renders progress as a bar on terminals and as item lines
// elsewhere.
type runDisplay struct {
	out   io.Writer
	quiet bool
	bar   *progressbar.ProgressBar
}

func newRunDisplay(out io.Writer, quiet bool) *runDisplay {
	d := &runDisplay{out: out, quiet: quiet}
	if !quiet && isTerminal(out) {
		d.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("Encoding"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "█",
				SaucerHead:    "█",
				SaucerPadding: "░",
				BarStart:      "▐",
				BarEnd:        "▌",
			}),
			progressbar.OptionSetWidth(50),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	return d
}

func (d *runDisplay) hooks() execution.Hooks {
	if d.quiet {
		return execution.Hooks{}
	}
	return execution.Hooks{
		OnProgress: func(snapshot domain.ProgressSnapshot) {
			if d.bar != nil {
				_ = d.bar.Set(snapshot.Percent)
			}
		},
		OnItemStart: func(item execution.Item) {
			if d.bar != nil {
				d.bar.Describe(fmt.Sprintf("[%d/%d] %s", item.Index, item.Total, item.Output))
				return
			}
			fmt.Fprintf(d.out, "[%d/%d] %s\n", item.Index, item.Total, item.Command)
		},
		OnItemDone: func(item execution.Item) {
			if d.bar == nil {
				fmt.Fprintf(d.out, "[%d/%d] exit %d\n", item.Index, item.Total, item.ExitCode)
			}
		},
	}
}

func (d *runDisplay) finish() {
	if d.bar != nil {
		_ = d.bar.Finish()
		fmt.Fprintln(d.out)
	}
}
