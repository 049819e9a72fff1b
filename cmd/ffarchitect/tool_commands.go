package main

import (
	"fmt"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"ffmpeg-architect/internal/ffmpeg"
	"ffmpeg-architect/internal/store"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func newEncodersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "encoders",
		Short: "Report hardware encoder families available to ffmpeg",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(st *store.Store) error {
				client, err := ctx.client(cmd.Context(), cmd, st)
				if err != nil {
					return err
				}
				caps := client.Encoders(cmd.Context())
				if ctx.flags.json {
					return writeJSON(cmd, caps)
				}
				rows := lo.Map(ffmpeg.HardwareEncoders, func(name string, _ int) []string {
					return []string{name, yesNo(caps[name])}
				})
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Encoder", "Available"}, rows, nil))
				return nil
			})
		},
	}
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <file>",
		Short: "Show ffprobe metadata for a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(st *store.Store) error {
				client, err := ctx.client(cmd.Context(), cmd, st)
				if err != nil {
					return err
				}
				probe := client.Probe(cmd.Context(), args[0])
				if probe == nil {
					return fmt.Errorf("no metadata for %s (is ffprobe installed?)", args[0])
				}
				if ctx.flags.json {
					return writeJSON(cmd, probe)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Format:   %s\n", probe.Format.FormatName)
				fmt.Fprintf(out, "Duration: %.2fs\n", probe.DurationSeconds())
				rows := make([][]string, 0, len(probe.Streams))
				for _, stream := range probe.Streams {
					detail := ""
					switch stream.CodecType {
					case "video":
						detail = fmt.Sprintf("%dx%d", stream.Width, stream.Height)
					case "audio":
						detail = fmt.Sprintf("%s Hz, %d ch", stream.SampleRate, stream.Channels)
					}
					rows = append(rows, []string{strconv.Itoa(stream.Index), stream.CodecType, stream.CodecName, detail})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Type", "Codec", "Detail"},
					rows,
					[]columnAlignment{alignRight},
				))
				return nil
			})
		},
	}
}

func newVersionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ffarchitect and ffmpeg versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(st *store.Store) error {
				client, err := ctx.client(cmd.Context(), cmd, st)
				if err != nil {
					return err
				}
				ffmpegVersion := client.Version(cmd.Context())
				if ctx.flags.json {
					return writeJSON(cmd, map[string]string{"ffarchitect": version, "ffmpeg": ffmpegVersion})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ffarchitect %s\nffmpeg      %s\n", version, ffmpegVersion)
				return nil
			})
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
