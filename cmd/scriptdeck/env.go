package main

import (
	"fmt"
	"path/filepath"

	"github.com/scriptdeck/scriptdeck/internal/envs"
	"github.com/spf13/cobra"
)

var envClear bool

var envCmd = &cobra.Command{
	Use:   "env [name]",
	Short: "Show or switch the active environment file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEnv,
}

func init() {
	envCmd.Flags().BoolVar(&envClear, "clear", false, "deactivate the current environment")
}

func runEnv(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	dir := ws.EnvsDir()

	if envClear {
		if err := envs.SetActive(dir, ""); err != nil {
			return err
		}
		fmt.Println("environment cleared")
		return nil
	}

	if len(args) == 1 {
		if err := envs.SetActive(dir, args[0]); err != nil {
			return err
		}
		fmt.Printf("activated %s\n", args[0])
		return nil
	}

	cfg, err := envs.Load(dir)
	if err != nil {
		return err
	}
	files, err := envs.List(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Printf("no environment files in %s\n", ws.Rel(dir))
		return nil
	}
	for _, name := range files {
		marker := " "
		if name == cfg.Active {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, name)
	}
	if cfg.Active != "" {
		pairs, err := envs.Preview(filepath.Join(dir, cfg.Active))
		if err != nil {
			return err
		}
		fmt.Println()
		for _, pair := range pairs {
			fmt.Printf("  %s=%s\n", pair.Key, pair.Value)
		}
	}
	return nil
}
