package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/scriptdeck/scriptdeck/internal/history"
	"github.com/scriptdeck/scriptdeck/internal/runner"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <script> [-- args...]",
	Short: "Run a script and record the result",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	script, err := resolveScript(ws.Root(), args[0])
	if err != nil {
		return err
	}
	scriptArgs := args[1:]

	out, runErr := runner.NewExecRunner().Run(context.Background(), script, scriptArgs)

	var entry history.Entry
	if runErr != nil {
		entry = history.NewFailure(ws.Root(), script, scriptArgs, runErr.Error())
	} else {
		entry = history.NewSuccess(ws.Root(), script, scriptArgs, out)
	}
	if _, err := history.Write(ws.HistoryDir(), entry); err != nil {
		fmt.Fprintf(os.Stderr, "warning: record run: %v\n", err)
	}

	if runErr != nil {
		return runErr
	}
	if out.Stdout != "" {
		fmt.Print(out.Stdout)
	}
	if out.Stderr != "" {
		fmt.Fprint(os.Stderr, out.Stderr)
	}
	if !out.Success {
		os.Exit(out.ExitCode)
	}
	return nil
}

// resolveScript locates a script relative to the workspace root,
// probing known extensions when the name has none.
func resolveScript(root, name string) (string, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, name)
	}
	if _, ok := runner.KindFor(path); ok {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	for _, ext := range runner.Extensions() {
		candidate := path + "." + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("script not found: %s", name)
}
