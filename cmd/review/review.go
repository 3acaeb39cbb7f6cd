package review

import (
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/zhaoxiaowang1993/ai-doc-review/internal/api"
	"github.com/zhaoxiaowang1993/ai-doc-review/internal/review"
	"github.com/zhaoxiaowang1993/ai-doc-review/internal/stream"
	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/shared"
	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/shared/artifacts"
	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/shared/config"
)

// Global variables for configuration and command arguments
var (
	AppConfig *config.Config
	logger    hclog.Logger
	client    *api.Client
	httpc     *resty.Client

	reviewOptions struct {
		DocID      string
		IssueID    string
		Force      bool
		Yes        bool
		RuleIDs    []string
		OutputPath string

		Fix         string
		Explanation string
		Reason      string
		HITL        bool

		Statuses  []string
		HideTypes []string
		Query     string
	}

	exampleReviewUsage = `  # Run a review and save the annotated rendering
  docreview review run --doc DOC_ID -o annotated.pdf

  # Force a re-run restricted to two rules, skipping the drift confirmation
  docreview review run --doc DOC_ID --force --yes --rules r1,r2

  # List open issues mentioning payment, sorted by page
  docreview review issues --doc DOC_ID --status not_reviewed --query payment

  # Accept an issue with an edited fix, through the human-review gate
  docreview review accept --doc DOC_ID --issue ISSUE_ID --fix "net 30 days" --hitl

  # Dismiss an issue with a reason
  docreview review dismiss --doc DOC_ID --issue ISSUE_ID --reason "covered by addendum"`
)

// ReviewCmd groups the review lifecycle commands.
var ReviewCmd = &cobra.Command{
	Use:                   "review [command]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleReviewUsage,
	Short:                 "Run reviews and work through the detected issues",
}

// Init initializes the global configuration variables for the review commands.
func Init(cfg *config.Config, l hclog.Logger, c *api.Client, rc *resty.Client) {
	AppConfig = cfg
	logger = l
	client = c
	httpc = rc
}

var runCmd = &cobra.Command{
	Use:                   "run --doc DOC_ID [--force [--yes]] [--rules IDS] [--output/-o PATH]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Run an AI review of a document",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
			return cmd.Help()
		}

		if err := validateDocFlag(reviewOptions.DocID); err != nil {
			logger.Error("invalid run arguments", "error", err)
			return err
		}

		r := newReviewer()
		if err := r.Load(cmd.Context(), reviewOptions.DocID); err != nil {
			logger.Error("loading document failed", "doc", reviewOptions.DocID, "error", err)
			return err
		}

		err := r.Run(cmd.Context(), review.RunOptions{
			Force:   reviewOptions.Force,
			RuleIDs: reviewOptions.RuleIDs,
			ConfirmDrift: func(api.ReviewRulesState) bool {
				return reviewOptions.Yes
			},
		})
		if errors.Is(err, review.ErrRulesDrift) {
			return fmt.Errorf("the rule set changed since the last review; re-run with --yes to confirm")
		}
		if err != nil {
			logger.Error("review failed", "doc", reviewOptions.DocID, "error", err)
			return err
		}

		if reviewOptions.OutputPath != "" {
			if err := r.WriteAnnotated(reviewOptions.OutputPath); err != nil {
				logger.Error("saving annotated document failed", "path", reviewOptions.OutputPath, "error", err)
				return err
			}
			logger.Info("annotated document saved", "path", reviewOptions.OutputPath)
		}
		summary := buildSummary(r.Session(), r.Reappeared())
		if subtype := r.Document().SubtypeID; subtype != "" {
			applied, err := client.RulesForReview(cmd.Context(), subtype)
			if err != nil {
				logger.Warn("listing applied rules failed", "subtype", subtype, "error", err)
			} else {
				for _, rule := range applied {
					summary.RulesApplied = append(summary.RulesApplied, rule.ID)
				}
			}
		}
		if AppConfig.Review.ReportsDir != "" {
			if _, err := artifacts.SaveReportJSON(AppConfig.Review.ReportsDir, logger, "review", reviewOptions.DocID, summary); err != nil {
				logger.Error("failed to write report", "error", err)
			}
		}
		return printJSON(summary)
	},
}

var issuesCmd = &cobra.Command{
	Use:                   "issues --doc DOC_ID [--status STATUSES] [--hide-type TYPES] [--query TEXT]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "List a document's issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
			return cmd.Help()
		}

		opts, err := validateIssuesArgs(&reviewOptions.DocID, reviewOptions.Statuses, reviewOptions.HideTypes, reviewOptions.Query)
		if err != nil {
			logger.Error("invalid issues arguments", "error", err)
			return err
		}

		r := newReviewer()
		if err := r.Load(cmd.Context(), reviewOptions.DocID); err != nil {
			logger.Error("loading document failed", "doc", reviewOptions.DocID, "error", err)
			return err
		}
		return printJSON(r.Session().Filtered(*opts))
	},
}

var acceptCmd = &cobra.Command{
	Use:                   "accept --doc DOC_ID --issue ISSUE_ID [--fix TEXT] [--explanation TEXT] [--hitl]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Accept an issue, optionally with edited fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
			return cmd.Help()
		}

		if err := validateIssueFlags(reviewOptions.DocID, reviewOptions.IssueID); err != nil {
			logger.Error("invalid accept arguments", "error", err)
			return err
		}

		r := newReviewer()
		if err := r.Load(cmd.Context(), reviewOptions.DocID); err != nil {
			logger.Error("loading document failed", "doc", reviewOptions.DocID, "error", err)
			return err
		}

		var modified *api.ModifiedFields
		if reviewOptions.Fix != "" || reviewOptions.Explanation != "" {
			modified = &api.ModifiedFields{
				SuggestedFix: reviewOptions.Fix,
				Explanation:  reviewOptions.Explanation,
			}
		}

		var issue *api.Issue
		var err error
		if reviewOptions.HITL {
			issue, err = r.ResolveViaHITL(cmd.Context(), reviewOptions.IssueID,
				api.HITLStartRequest{Action: "accept", ModifiedFields: modified}, approveDecider)
		} else {
			issue, err = r.Accept(cmd.Context(), reviewOptions.IssueID, modified)
		}
		if err != nil {
			logger.Error("accepting issue failed", "issue", reviewOptions.IssueID, "error", err)
			return err
		}
		logger.Info("issue accepted", "issue", issue.ID)
		return printJSON(issue)
	},
}

var dismissCmd = &cobra.Command{
	Use:                   "dismiss --doc DOC_ID --issue ISSUE_ID [--reason TEXT] [--hitl]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Dismiss an issue",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
			return cmd.Help()
		}

		if err := validateIssueFlags(reviewOptions.DocID, reviewOptions.IssueID); err != nil {
			logger.Error("invalid dismiss arguments", "error", err)
			return err
		}

		r := newReviewer()
		if err := r.Load(cmd.Context(), reviewOptions.DocID); err != nil {
			logger.Error("loading document failed", "doc", reviewOptions.DocID, "error", err)
			return err
		}

		var feedback *api.DismissalFeedback
		if reviewOptions.Reason != "" {
			feedback = &api.DismissalFeedback{Reason: reviewOptions.Reason}
		}

		var issue *api.Issue
		var err error
		if reviewOptions.HITL {
			issue, err = r.ResolveViaHITL(cmd.Context(), reviewOptions.IssueID,
				api.HITLStartRequest{Action: "dismiss", DismissalFeedback: feedback}, approveDecider)
		} else {
			issue, err = r.Dismiss(cmd.Context(), reviewOptions.IssueID, feedback)
		}
		if err != nil {
			logger.Error("dismissing issue failed", "issue", reviewOptions.IssueID, "error", err)
			return err
		}
		logger.Info("issue dismissed", "issue", issue.ID)
		return printJSON(issue)
	},
}

var feedbackCmd = &cobra.Command{
	Use:                   "feedback --doc DOC_ID --issue ISSUE_ID --reason TEXT",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Record feedback on an issue without resolving it",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
			return cmd.Help()
		}

		if err := validateFeedbackFlags(reviewOptions.DocID, reviewOptions.IssueID, reviewOptions.Reason); err != nil {
			logger.Error("invalid feedback arguments", "error", err)
			return err
		}

		r := newReviewer()
		if err := r.Load(cmd.Context(), reviewOptions.DocID); err != nil {
			logger.Error("loading document failed", "doc", reviewOptions.DocID, "error", err)
			return err
		}

		issue, err := r.Feedback(cmd.Context(), reviewOptions.IssueID, api.DismissalFeedback{Reason: reviewOptions.Reason})
		if err != nil {
			logger.Error("recording feedback failed", "issue", reviewOptions.IssueID, "error", err)
			return err
		}
		logger.Info("feedback recorded", "issue", issue.ID)
		return printJSON(issue)
	},
}

func newReviewer() *review.Reviewer {
	runner := stream.NewRunner(httpc, logger, config.MaxStreamRetries(AppConfig))
	return review.New(client, runner, logger)
}

func init() {
	runCmd.Flags().StringVar(&reviewOptions.DocID, "doc", "", "Document to review.")
	runCmd.Flags().BoolVar(&reviewOptions.Force, "force", false, "Discard the cached result and recompute the review.")
	runCmd.Flags().BoolVar(&reviewOptions.Yes, "yes", false, "Skip the rule drift confirmation on forced re-runs.")
	runCmd.Flags().StringSliceVar(&reviewOptions.RuleIDs, "rules", nil, "Restrict the review to these rule ids.")
	runCmd.Flags().StringVarP(&reviewOptions.OutputPath, "output", "o", "", "Path where the annotated PDF will be saved.")

	issuesCmd.Flags().StringVar(&reviewOptions.DocID, "doc", "", "Document whose issues are listed.")
	issuesCmd.Flags().StringSliceVar(&reviewOptions.Statuses, "status", nil, "Keep only these statuses (not_reviewed, accepted, dismissed).")
	issuesCmd.Flags().StringSliceVar(&reviewOptions.HideTypes, "hide-type", nil, "Hide issues of these types.")
	issuesCmd.Flags().StringVar(&reviewOptions.Query, "query", "", "Keep issues containing this text.")

	acceptCmd.Flags().StringVar(&reviewOptions.DocID, "doc", "", "Document the issue belongs to.")
	acceptCmd.Flags().StringVar(&reviewOptions.IssueID, "issue", "", "Issue to accept.")
	acceptCmd.Flags().StringVar(&reviewOptions.Fix, "fix", "", "Reviewer-edited suggested fix.")
	acceptCmd.Flags().StringVar(&reviewOptions.Explanation, "explanation", "", "Reviewer-edited explanation.")
	acceptCmd.Flags().BoolVar(&reviewOptions.HITL, "hitl", false, "Route the action through the human-review gate.")

	dismissCmd.Flags().StringVar(&reviewOptions.DocID, "doc", "", "Document the issue belongs to.")
	dismissCmd.Flags().StringVar(&reviewOptions.IssueID, "issue", "", "Issue to dismiss.")
	dismissCmd.Flags().StringVar(&reviewOptions.Reason, "reason", "", "Why the issue is being dismissed.")
	dismissCmd.Flags().BoolVar(&reviewOptions.HITL, "hitl", false, "Route the action through the human-review gate.")

	feedbackCmd.Flags().StringVar(&reviewOptions.DocID, "doc", "", "Document the issue belongs to.")
	feedbackCmd.Flags().StringVar(&reviewOptions.IssueID, "issue", "", "Issue the feedback is about.")
	feedbackCmd.Flags().StringVar(&reviewOptions.Reason, "reason", "", "Feedback text.")

	ReviewCmd.AddCommand(runCmd, issuesCmd, acceptCmd, dismissCmd, feedbackCmd)
}
