package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kuzumem/kuzumem-mcp/internal/export"
	"github.com/kuzumem/kuzumem-mcp/internal/ui"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the memory bank as a YAML snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, cfg, _, err := buildService()
		if err != nil {
			return err
		}
		defer svc.Shutdown()

		root, repo, branch, err := resolveScope(cfg)
		if err != nil {
			return err
		}
		out := os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		if err := export.Write(cmd.Context(), svc, root, repo, branch, out); err != nil {
			return err
		}
		if exportOutput != "" {
			fmt.Printf("%s exported %s:%s to %s\n", ui.Pass(ui.IconPass), repo, branch, exportOutput)
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <snapshot.yaml>",
	Short: "Import a YAML snapshot into the memory bank",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cfg, _, err := buildService()
		if err != nil {
			return err
		}
		defer svc.Shutdown()

		root, _, _, err := resolveScope(cfg)
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		snap, err := export.Read(cmd.Context(), svc, root, f)
		if err != nil {
			return err
		}
		fmt.Printf("%s imported %d components, %d decisions, %d rules into %s:%s\n",
			ui.Pass(ui.IconPass),
			len(snap.Components), len(snap.Decisions), len(snap.Rules),
			snap.Repository, snap.Branch)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write the snapshot to a file instead of stdout")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
