package main

import (
	"fmt"

	"github.com/scriptdeck/scriptdeck/internal/catalog"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every runnable script in the workspace",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	scripts, err := catalog.ListScriptsRecursive(ws.Root())
	if err != nil {
		return err
	}
	for _, script := range scripts {
		fmt.Println(ws.Rel(script))
	}
	return nil
}
