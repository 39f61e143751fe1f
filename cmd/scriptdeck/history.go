package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/scriptdeck/scriptdeck/internal/history"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent script runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum entries to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	entries, err := history.Load(ws.HistoryDir())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}
	if historyLimit > 0 && len(entries) > historyLimit {
		entries = entries[:historyLimit]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tSTATUS\tSCRIPT")
	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "fail"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", history.FormatTimestamp(e.Timestamp), status, e.Script)
	}
	return w.Flush()
}
