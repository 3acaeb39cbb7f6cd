package rules

import (
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/zhaoxiaowang1993/ai-doc-review/internal/api"
	rulespanel "github.com/zhaoxiaowang1993/ai-doc-review/internal/rules"
	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/shared"
	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/shared/config"
)

// Global variables for configuration and command arguments
var (
	AppConfig *config.Config
	logger    hclog.Logger
	client    *api.Client

	rulesOptions struct {
		Name        string
		Description string
		RiskLevel   string
		Status      string
		Examples    []string
		Universal   bool
		TypeIDs     []string
		SubtypeIDs  []string

		DocID     string
		SubtypeID string
		RuleID    string
		Force     bool
	}

	exampleRulesUsage = `  # List the rule catalog
  docreview rules list

  # Create a universal rule with one example
  docreview rules create --name "Payment Terms" --description "Flag open-ended payment windows" --risk high --universal \
      --example "payment due upon completion::no concrete payment deadline"

  # Deactivate a rule
  docreview rules update --status inactive RULE_ID

  # Show the per-document rule panel and flip one rule
  docreview rules panel --doc DOC_ID
  docreview rules toggle --doc DOC_ID --rule RULE_ID`
)

// RulesCmd groups the review rule management commands.
var RulesCmd = &cobra.Command{
	Use:                   "rules [command]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleRulesUsage,
	Short:                 "Manage review rules and their document associations",
}

// Init initializes the global configuration variables for the rules commands.
func Init(cfg *config.Config, l hclog.Logger, c *api.Client) {
	AppConfig = cfg
	logger = l
	client = c
}

var listCmd = &cobra.Command{
	Use:                   "list",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "List the rule catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := client.ListRules(cmd.Context())
		if err != nil {
			logger.Error("listing rules failed", "error", err)
			return err
		}
		return printJSON(catalog)
	},
}

var createCmd = &cobra.Command{
	Use:                   "create --name NAME --description TEXT [--risk LEVEL] [--universal | --type-ids IDS --subtype-ids IDS]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Create a review rule",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
			return cmd.Help()
		}

		req, err := buildCreateRequest(cmd)
		if err != nil {
			logger.Error("invalid create arguments", "error", err)
			return err
		}

		rule, err := client.CreateRule(cmd.Context(), *req)
		if err != nil {
			logger.Error("creating rule failed", "error", err)
			return err
		}
		logger.Info("rule created", "rule", rule.ID, "name", rule.Name)
		return printJSON(rule)
	},
}

var updateCmd = &cobra.Command{
	Use:                   "update [--name NAME] [--description TEXT] [--risk LEVEL] [--status STATUS] RULE_ID",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Update a review rule",
	RunE: func(cmd *cobra.Command, args []string) error {
		ruleID, req, err := buildUpdateRequest(cmd, args)
		if err != nil {
			logger.Error("invalid update arguments", "error", err)
			return err
		}

		rule, err := client.UpdateRule(cmd.Context(), ruleID, *req)
		if err != nil {
			logger.Error("updating rule failed", "rule", ruleID, "error", err)
			return err
		}
		logger.Info("rule updated", "rule", rule.ID)
		return printJSON(rule)
	},
}

var deleteCmd = &cobra.Command{
	Use:                   "delete --force RULE_ID",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Delete a review rule",
	RunE: func(cmd *cobra.Command, args []string) error {
		ruleID, err := validateDeleteArgs(args, rulesOptions.Force)
		if err != nil {
			logger.Error("invalid delete arguments", "error", err)
			return err
		}

		if err := client.DeleteRule(cmd.Context(), ruleID); err != nil {
			logger.Error("deleting rule failed", "rule", ruleID, "error", err)
			return err
		}
		logger.Info("rule deleted", "rule", ruleID)
		return nil
	},
}

var panelCmd = &cobra.Command{
	Use:                   "panel --doc DOC_ID [--subtype SUBTYPE_ID]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Show the per-document rule enablement panel",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
			return cmd.Help()
		}

		if err := validateDocFlag(rulesOptions.DocID); err != nil {
			logger.Error("invalid panel arguments", "error", err)
			return err
		}

		panel := newPanel()
		if err := panel.Load(cmd.Context()); err != nil {
			logger.Error("loading rule panel failed", "doc", rulesOptions.DocID, "error", err)
			return err
		}
		return printPanel(panel.Entries())
	},
}

var toggleCmd = &cobra.Command{
	Use:                   "toggle --doc DOC_ID --rule RULE_ID [--subtype SUBTYPE_ID]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Flip a rule's enablement for a document",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
			return cmd.Help()
		}

		if err := validateToggleFlags(rulesOptions.DocID, rulesOptions.RuleID); err != nil {
			logger.Error("invalid toggle arguments", "error", err)
			return err
		}

		panel := newPanel()
		if err := panel.Load(cmd.Context()); err != nil {
			logger.Error("loading rule panel failed", "doc", rulesOptions.DocID, "error", err)
			return err
		}
		enabled, err := panel.Toggle(cmd.Context(), rulesOptions.RuleID)
		if err != nil {
			logger.Error("toggling rule failed", "rule", rulesOptions.RuleID, "error", err)
			return err
		}
		logger.Info("rule toggled", "rule", rulesOptions.RuleID, "enabled", enabled)
		return nil
	},
}

func newPanel() *rulespanel.Panel {
	mode := rulespanel.ModeLegacy
	if rulesOptions.SubtypeID != "" {
		mode = rulespanel.ModeSubtype
	}
	return rulespanel.NewPanel(client, logger, rulesOptions.DocID, rulesOptions.SubtypeID, mode)
}

func init() {
	createCmd.Flags().StringVar(&rulesOptions.Name, "name", "", "Rule name.")
	createCmd.Flags().StringVar(&rulesOptions.Description, "description", "", "What the rule should flag.")
	createCmd.Flags().StringVar(&rulesOptions.RiskLevel, "risk", "medium", "Risk level of matched issues (high, medium, low).")
	createCmd.Flags().StringArrayVar(&rulesOptions.Examples, "example", nil, "Example in 'text::explanation' form. Repeatable.")
	createCmd.Flags().BoolVar(&rulesOptions.Universal, "universal", false, "Apply the rule to every document type.")
	createCmd.Flags().StringSliceVar(&rulesOptions.TypeIDs, "type-ids", nil, "Document type ids the rule is scoped to.")
	createCmd.Flags().StringSliceVar(&rulesOptions.SubtypeIDs, "subtype-ids", nil, "Document subtype ids the rule is scoped to.")

	updateCmd.Flags().StringVar(&rulesOptions.Name, "name", "", "New rule name.")
	updateCmd.Flags().StringVar(&rulesOptions.Description, "description", "", "New rule description.")
	updateCmd.Flags().StringVar(&rulesOptions.RiskLevel, "risk", "", "New risk level (high, medium, low).")
	updateCmd.Flags().StringVar(&rulesOptions.Status, "status", "", "New rule status (active, inactive).")

	deleteCmd.Flags().BoolVar(&rulesOptions.Force, "force", false, "Confirm the deletion. Without it the command refuses to run.")

	panelCmd.Flags().StringVar(&rulesOptions.DocID, "doc", "", "Document the panel is scoped to.")
	panelCmd.Flags().StringVar(&rulesOptions.SubtypeID, "subtype", "", "Resolve applicability from this subtype instead of stored associations.")

	toggleCmd.Flags().StringVar(&rulesOptions.DocID, "doc", "", "Document the toggle applies to.")
	toggleCmd.Flags().StringVar(&rulesOptions.RuleID, "rule", "", "Rule to flip.")
	toggleCmd.Flags().StringVar(&rulesOptions.SubtypeID, "subtype", "", "Resolve applicability from this subtype instead of stored associations.")

	RulesCmd.AddCommand(listCmd, createCmd, updateCmd, deleteCmd, panelCmd, toggleCmd)
}
