package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ffmpeg-architect/internal/domain"
	"ffmpeg-architect/internal/store"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List the most recent invocations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(st *store.Store) error {
				records, err := st.ListRuns(cmd.Context())
				if err != nil {
					return fmt.Errorf("list history: %w", err)
				}
				if ctx.flags.json {
					return writeJSON(cmd, records)
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderHistory(records))
				return nil
			})
		},
	}
}

func renderHistory(records []domain.RunRecord) string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.FormatInt(record.ID, 10),
			record.Timestamp.Local().Format("2006-01-02 15:04:05"),
			string(record.Status),
			truncate(record.Command, 80),
		})
	}
	return renderTable(
		[]string{"ID", "Time", "Status", "Command"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	)
}
