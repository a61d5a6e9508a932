package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kuzumem/kuzumem-mcp/internal/timeparsing"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
	"github.com/kuzumem/kuzumem-mcp/internal/ui"
)

var (
	contextDate         string
	contextAgent        string
	contextSummary      string
	contextDecisions    []string
	contextObservations []string

	componentKind      string
	componentStatus    string
	componentDependsOn []string

	decisionContext string
	decisionDate    string

	ruleContent  string
	ruleTriggers []string
)

var addContextCmd = &cobra.Command{
	Use:   "add-context",
	Short: "Append to a daily context entry",
	Long:  "Merge decisions and observations into the context entry for a date. The date accepts YYYY-MM-DD or natural language like \"yesterday\".",
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
		date, err := timeparsing.ParseDate(contextDate, time.Now())
		if err != nil {
			return err
		}
		cx, err := svc.UpdateContext(cmd.Context(), root, repo, branch, &types.Context{
			ID:           "context-" + date,
			ISODate:      date,
			Agent:        contextAgent,
			Summary:      contextSummary,
			Decisions:    contextDecisions,
			Observations: contextObservations,
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s context %s updated (%d decisions, %d observations)\n",
			ui.Pass(ui.IconPass), cx.ID, len(cx.Decisions), len(cx.Observations))
		return nil
	},
}

var addComponentCmd = &cobra.Command{
	Use:   "add-component <id> <name>",
	Short: "Upsert a component",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cfg, _, err := buildService()
		if err != nil {
			return err
		}
		defer svc.Shutdown()

		root, repo, branch, err := resolveScope(cfg)
		if err != nil {
			return err
		}
		comp, err := svc.UpsertComponent(cmd.Context(), root, repo, branch, &types.Component{
			ID:        args[0],
			Name:      args[1],
			Kind:      componentKind,
			Status:    types.ComponentStatus(componentStatus),
			DependsOn: componentDependsOn,
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s component %s (%s)\n", ui.Pass(ui.IconPass), comp.ID, comp.Status)
		return nil
	},
}

var addDecisionCmd = &cobra.Command{
	Use:   "add-decision <id> <name>",
	Short: "Record a decision",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cfg, _, err := buildService()
		if err != nil {
			return err
		}
		defer svc.Shutdown()

		root, repo, branch, err := resolveScope(cfg)
		if err != nil {
			return err
		}
		date, err := timeparsing.ParseDate(decisionDate, time.Now())
		if err != nil {
			return err
		}
		dec, err := svc.UpsertDecision(cmd.Context(), root, repo, branch, &types.Decision{
			ID:      args[0],
			Name:    args[1],
			Context: decisionContext,
			Date:    date,
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s decision %s (%s)\n", ui.Pass(ui.IconPass), dec.ID, dec.Date)
		return nil
	},
}

var addRuleCmd = &cobra.Command{
	Use:   "add-rule <id> <name>",
	Short: "Record a governing rule",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cfg, _, err := buildService()
		if err != nil {
			return err
		}
		defer svc.Shutdown()

		root, repo, branch, err := resolveScope(cfg)
		if err != nil {
			return err
		}
		rule, err := svc.UpsertRule(cmd.Context(), root, repo, branch, &types.Rule{
			ID:       args[0],
			Name:     args[1],
			Content:  ruleContent,
			Triggers: ruleTriggers,
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s rule %s (%s)\n", ui.Pass(ui.IconPass), rule.ID, rule.Status)
		return nil
	},
}

func init() {
	addContextCmd.Flags().StringVar(&contextDate, "date", "", "entry date (YYYY-MM-DD or natural language, default today)")
	addContextCmd.Flags().StringVar(&contextAgent, "agent", "", "agent or author name")
	addContextCmd.Flags().StringVar(&contextSummary, "summary", "", "session summary")
	addContextCmd.Flags().StringArrayVar(&contextDecisions, "decision", nil, "decision note (repeatable)")
	addContextCmd.Flags().StringArrayVar(&contextObservations, "observation", nil, "observation note (repeatable)")

	addComponentCmd.Flags().StringVar(&componentKind, "kind", "", "component kind (service, library, ...)")
	addComponentCmd.Flags().StringVar(&componentStatus, "status", "", "lifecycle status (active, deprecated, planned)")
	addComponentCmd.Flags().StringArrayVar(&componentDependsOn, "depends-on", nil, "dependency component id (repeatable)")

	addDecisionCmd.Flags().StringVar(&decisionContext, "context", "", "decision rationale")
	addDecisionCmd.Flags().StringVar(&decisionDate, "date", "", "decision date (YYYY-MM-DD or natural language, default today)")

	addRuleCmd.Flags().StringVar(&ruleContent, "content", "", "rule text")
	addRuleCmd.Flags().StringArrayVar(&ruleTriggers, "trigger", nil, "trigger keyword (repeatable)")

	rootCmd.AddCommand(addContextCmd)
	rootCmd.AddCommand(addComponentCmd)
	rootCmd.AddCommand(addDecisionCmd)
	rootCmd.AddCommand(addRuleCmd)
}
