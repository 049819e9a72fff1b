package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ffmpeg-architect/internal/domain"
	"ffmpeg-architect/internal/store"
)

func newPresetCommand(ctx *commandContext) *cobra.Command {
	presetCmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage saved configuration presets",
	}
	presetCmd.AddCommand(newPresetListCommand(ctx))
	presetCmd.AddCommand(newPresetSaveCommand(ctx))
	presetCmd.AddCommand(newPresetExportCommand(ctx))
	presetCmd.AddCommand(newPresetImportCommand(ctx))
	return presetCmd
}

func newPresetListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(st *store.Store) error {
				presets, err := st.ListPresets(cmd.Context())
				if err != nil {
					return fmt.Errorf("list presets: %w", err)
				}
				if ctx.flags.json {
					return writeJSON(cmd, presets)
				}
				if len(presets) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No presets saved")
					return nil
				}
				rows := make([][]string, 0, len(presets))
				for _, preset := range presets {
					rows = append(rows, []string{
						strconv.FormatInt(preset.ID, 10),
						preset.Name,
						preset.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newPresetSaveCommand(ctx *commandContext) *cobra.Command {
	var doc documentFlags
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save the configuration document as a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfiguration(doc)
			if err != nil {
				return err
			}
			return ctx.withStore(cmd.Context(), func(st *store.Store) error {
				preset, err := st.SavePreset(cmd.Context(), args[0], cfg)
				if err != nil {
					return fmt.Errorf("save preset: %w", err)
				}
				if ctx.flags.json {
					return writeJSON(cmd, preset)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved preset %d (%s)\n", preset.ID, preset.Name)
				return nil
			})
		},
	}
	addDocumentFlags(cmd, &doc)
	return cmd
}

func newPresetExportCommand(ctx *commandContext) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a preset's configuration document to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePresetID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(cmd.Context(), func(st *store.Store) error {
				preset, err := st.GetPreset(cmd.Context(), id)
				if err != nil {
					if errors.Is(err, store.ErrNotFound) {
						return fmt.Errorf("preset %d not found", id)
					}
					return err
				}
				cfg, err := domain.ParseDocument([]byte(preset.ConfigJSON))
				if err != nil {
					return err
				}
				data, err := encodeDocument(cfg, format)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Document format: yaml or json")
	return cmd
}

func newPresetImportCommand(ctx *commandContext) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Save a JSON or YAML configuration document as a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readDocument(args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(name) == "" {
				base := filepath.Base(args[0])
				name = strings.TrimSuffix(base, filepath.Ext(base))
			}
			return ctx.withStore(cmd.Context(), func(st *store.Store) error {
				preset, err := st.SavePreset(cmd.Context(), name, cfg)
				if err != nil {
					return fmt.Errorf("import preset: %w", err)
				}
				if ctx.flags.json {
					return writeJSON(cmd, preset)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported preset %d (%s)\n", preset.ID, preset.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Preset name (defaults to the file name)")
	return cmd
}

func parsePresetID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid preset id %q", arg)
	}
	return id, nil
}

func encodeDocument(cfg domain.Configuration, format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		return cfg.MarshalYAMLDocument()
	case "json":
		data, err := cfg.MarshalDocument()
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported format %q (want yaml or json)", format)
	}
}
