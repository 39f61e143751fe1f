package main

import (
	"fmt"
	"os"

	"github.com/scriptdeck/scriptdeck/internal/catalog"
	"github.com/scriptdeck/scriptdeck/internal/history"
	"github.com/scriptdeck/scriptdeck/internal/runner"
	"github.com/scriptdeck/scriptdeck/internal/search"
	"github.com/scriptdeck/scriptdeck/internal/tui"
	"github.com/scriptdeck/scriptdeck/internal/workspace"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scriptdeck",
	Short: "scriptdeck - terminal workspace for runnable scripts",
	Long:  `scriptdeck browses a directory tree of scripts, generates input forms from their declared schemas, runs them, and keeps a searchable run history.`,
	RunE:  runTUI,
}

var workspaceDir string

func init() {
	rootCmd.PersistentFlags().StringVar(&workspaceDir, "dir", "", "workspace root (default: $SCRIPTDECK_DIR or CWD)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(indexCmd)
}

// openWorkspace resolves the root and makes sure the bookkeeping
// directories exist.
func openWorkspace() (*workspace.Workspace, error) {
	ws, err := workspace.Resolve(workspaceDir)
	if err != nil {
		return nil, err
	}
	if err := ws.EnsureLayout(); err != nil {
		return nil, err
	}
	return ws, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	entries, err := catalog.List(ws.Root())
	if err != nil {
		return err
	}
	hist, err := history.Load(ws.HistoryDir())
	if err != nil {
		return err
	}

	index := search.New(ws.SearchDBPath())
	index.StartRebuild(ws.Root())

	app := tui.New(ws, index, runner.NewExecRunner(), entries, hist)
	return app.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
