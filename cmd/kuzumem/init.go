package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kuzumem/kuzumem-mcp/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the project's memory bank",
	Long:  "Create (or open) the project's .kuzumem/memory-bank.db, bootstrap the schema, and ensure the Repository node for the chosen repository and branch.",
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
		if _, err := svc.InitMemoryBank(cmd.Context(), root, repo, branch); err != nil {
			fmt.Printf("%s init failed: %v\n", ui.Fail(ui.IconFail), err)
			return err
		}
		fmt.Printf("%s memory bank ready for %s:%s\n", ui.Pass(ui.IconPass), repo, branch)
		fmt.Println(ui.Muted("  " + svc.Manager().DBPath(root)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
