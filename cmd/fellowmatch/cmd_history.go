package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fellowmatch/service"
)

var (
	historyRunsOnly bool
	compactBefore   uint64
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List journaled commands and matching runs",
	Args:  cobra.NoArgs,
	RunE:  showHistory,
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Journal maintenance",
}

var journalCompactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Remove closed journal segments at or below a sequence number",
	Args:  cobra.NoArgs,
	RunE:  compactJournal,
}

func init() {
	historyCmd.Flags().BoolVar(&historyRunsOnly, "runs", false, "only matching runs")
	historyCmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	journalCompactCmd.Flags().Uint64Var(&compactBefore, "before", 0, "highest sequence number that may be dropped")
	_ = journalCompactCmd.MarkFlagRequired("before")
	journalCmd.AddCommand(journalCompactCmd)
}

func showHistory(cmd *cobra.Command, args []string) error {
	entries, err := service.History(cfg.Journal.Dir)
	if err != nil {
		return err
	}
	if historyRunsOnly {
		kept := entries[:0]
		for _, e := range entries {
			if e.Fields["run_id"] != nil {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	if asJSON {
		out := make([]map[string]any, len(entries))
		for i, e := range entries {
			out[i] = map[string]any{
				"seq":    e.Seq,
				"type":   e.Type.String(),
				"time":   e.Time.UTC(),
				"fields": e.Fields,
			}
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tTIME\tTYPE\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.Seq, e.Time.UTC().Format(time.RFC3339), e.Type, summarize(e.Fields))
	}
	return tw.Flush()
}

// summarize renders scalar fields as key=value in key order.
func summarize(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		switch v.(type) {
		case []any, map[string]any:
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, fields[k])
	}
	if ranked, ok := fields["ranked"].([]any); ok {
		parts = append(parts, fmt.Sprintf("ranked=%v", ranked))
	}
	return strings.Join(parts, " ")
}

func compactJournal(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.journal.TruncateBefore(compactBefore)
	if err != nil {
		return err
	}
	logger.Info("journal compacted", zap.Uint64("before", compactBefore), zap.Int("segments_removed", removed))
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %d segment(s)\n", removed)
	return err
}
