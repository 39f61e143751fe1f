package main

import (
	"fmt"
	"strings"

	"github.com/scriptdeck/scriptdeck/internal/search"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index [query]",
	Short: "Rebuild the script search index, then optionally query it",
	RunE:  runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	index := search.New(ws.SearchDBPath())
	count, err := index.Rebuild(ws.Root())
	if err != nil {
		return err
	}
	fmt.Printf("indexed %d scripts\n", count)

	if len(args) == 0 {
		return nil
	}
	results, err := index.Query(strings.Join(args, " "))
	if err != nil {
		return err
	}
	for _, r := range results {
		line := fmt.Sprintf("%s\t%s", r.DisplayName, ws.Rel(r.ScriptPath))
		if r.SchemaError != "" {
			line += "\t(schema error)"
		}
		fmt.Println(line)
	}
	return nil
}
