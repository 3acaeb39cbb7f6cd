package review

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/zhaoxiaowang1993/ai-doc-review/internal/annotate"
	"github.com/zhaoxiaowang1993/ai-doc-review/internal/api"
	"github.com/zhaoxiaowang1993/ai-doc-review/internal/session"
	"github.com/zhaoxiaowang1993/ai-doc-review/internal/stream"
	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/issuecorrelation"
	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/shared/files"
)

// Backend is the slice of the API client the reviewer drives.
type Backend interface {
	GetDocument(ctx context.Context, docID string) (*api.Document, error)
	DownloadDocumentFile(ctx context.Context, docID string) ([]byte, error)
	DocumentIssues(ctx context.Context, docID string) ([]api.Issue, error)
	AcceptIssue(ctx context.Context, docID, issueID string, modified *api.ModifiedFields) (*api.Issue, error)
	DismissIssue(ctx context.Context, docID, issueID string, feedback *api.DismissalFeedback) (*api.Issue, error)
	IssueFeedback(ctx context.Context, docID, issueID string, feedback api.DismissalFeedback) (*api.Issue, error)
	StartHITL(ctx context.Context, docID, issueID string, req api.HITLStartRequest) (*api.HITLStartResponse, error)
	ResumeHITL(ctx context.Context, docID, issueID string, req api.HITLResumeRequest) (*api.Issue, error)
	RulesState(ctx context.Context, docID string) (*api.ReviewRulesState, error)
}

// Streamer runs one review stream to completion.
type Streamer interface {
	Run(ctx context.Context, opts stream.RunOptions, h stream.Handlers) error
}

// Canvas is the annotated document surface.
type Canvas interface {
	Add(page int, quad annotate.Quad, col annotate.Color, opacity float64) (string, error)
	Delete(id string) error
	Bytes() []byte
}

// Reviewer ties one loaded document to its review session, its annotated
// rendering and the backend. It is the unit the CLI commands operate on.
type Reviewer struct {
	backend Backend
	runner  Streamer
	logger  hclog.Logger

	newCanvas func(doc []byte) (Canvas, error)

	doc        *api.Document
	session    *session.Session
	canvas     Canvas
	selector   *annotate.Selector
	reappeared []api.Issue
}

// New creates a Reviewer with nothing loaded.
func New(backend Backend, runner Streamer, logger hclog.Logger) *Reviewer {
	return &Reviewer{
		backend: backend,
		runner:  runner,
		logger:  logger,
		newCanvas: func(doc []byte) (Canvas, error) {
			return annotate.NewOverlay(doc)
		},
	}
}

// Load fetches the document with its persisted issues and prepares the
// annotated rendering. Previously resolved issues come back highlighted so
// a reopened document looks like it did when it was closed.
func (r *Reviewer) Load(ctx context.Context, docID string) error {
	doc, err := r.backend.GetDocument(ctx, docID)
	if err != nil {
		return err
	}
	data, err := r.backend.DownloadDocumentFile(ctx, docID)
	if err != nil {
		return err
	}
	if !files.IsPDF(data) {
		return fmt.Errorf("document %s is not a PDF", docID)
	}

	canvas, err := r.newCanvas(data)
	if err != nil {
		return fmt.Errorf("preparing document %s: %w", docID, err)
	}

	r.doc = doc
	r.canvas = canvas
	r.selector = annotate.NewSelector(canvas)
	r.session = session.NewSession(docID)

	issues, err := r.backend.DocumentIssues(ctx, docID)
	if err != nil {
		return err
	}
	r.session.ApplyIncoming(issues)
	r.highlight(issues)
	if len(issues) > 0 {
		r.session.MarkFinished()
	}
	return nil
}

// Document returns the loaded document.
func (r *Reviewer) Document() *api.Document {
	return r.doc
}

// Session returns the live session, nil before Load.
func (r *Reviewer) Session() *session.Session {
	return r.session
}

// AnnotatedBytes returns the current annotated rendering.
func (r *Reviewer) AnnotatedBytes() []byte {
	return r.canvas.Bytes()
}

// WriteAnnotated saves the annotated rendering to path.
func (r *Reviewer) WriteAnnotated(path string) error {
	return os.WriteFile(path, r.canvas.Bytes(), 0644)
}

// ErrRulesDrift rejects a forced re-run because the applicable rule set
// changed since the document was last reviewed and nobody confirmed.
var ErrRulesDrift = errors.New("rule set changed since the last review")

// RunOptions parameterize one review pass.
type RunOptions struct {
	Force   bool
	RuleIDs []string

	// ConfirmDrift is consulted when a forced run hits rule drift. A nil
	// callback, or one returning false, aborts with ErrRulesDrift.
	ConfirmDrift func(state api.ReviewRulesState) bool
}

// Run recomputes the document's issues. A forced run first consults
// RulesState and refuses to proceed on unconfirmed drift. The session is
// cleared up front; batches land in it as the stream delivers them, and
// highlights are stamped best effort, so a failed annotation never loses
// an issue.
func (r *Reviewer) Run(ctx context.Context, opts RunOptions) error {
	if r.session == nil {
		return fmt.Errorf("no document loaded")
	}

	var priorDismissed []api.Issue
	if opts.Force {
		state, err := r.RulesState(ctx)
		if err != nil {
			return err
		}
		if state.RulesChangedSinceReview {
			if opts.ConfirmDrift == nil || !opts.ConfirmDrift(*state) {
				return ErrRulesDrift
			}
		}
		for _, issue := range r.session.Issues() {
			if issue.Status == api.IssueStatusDismissed {
				priorDismissed = append(priorDismissed, issue)
			}
		}
	}
	r.reappeared = nil
	r.session.Reset()

	err := r.runner.Run(ctx, stream.RunOptions{
		DocID:   r.session.DocID(),
		Force:   opts.Force,
		RuleIDs: opts.RuleIDs,
	}, stream.Handlers{
		OnIssues: func(issues []api.Issue) {
			r.session.ApplyIncoming(issues)
			r.highlight(issues)
		},
		OnComplete: func() {
			r.session.MarkFinished()
		},
	})
	if err != nil {
		return err
	}

	if len(priorDismissed) > 0 {
		r.reappeared = r.correlateDismissed(priorDismissed)
		if len(r.reappeared) > 0 {
			r.logger.Warn("previously dismissed issues reappeared", "doc", r.session.DocID(), "count", len(r.reappeared))
		}
	}
	r.logger.Info("review complete", "doc", r.session.DocID(), "issues", r.session.Len())
	return nil
}

// Reappeared returns the issues of the latest forced run that correlate to
// issues the reviewer had dismissed before the run.
func (r *Reviewer) Reappeared() []api.Issue {
	return r.reappeared
}

// correlateDismissed pairs the fresh issue list against the dismissed issues
// of the previous run and returns the fresh issues that came back.
func (r *Reviewer) correlateDismissed(priorDismissed []api.Issue) []api.Issue {
	known := make([]issuecorrelation.IssueMetadata, 0, len(priorDismissed))
	for _, issue := range priorDismissed {
		known = append(known, issueMetadata(issue))
	}
	fresh := r.session.Issues()
	incoming := make([]issuecorrelation.IssueMetadata, 0, len(fresh))
	for _, issue := range fresh {
		incoming = append(incoming, issueMetadata(issue))
	}

	c := issuecorrelation.NewCorrelator(incoming, known)
	c.Process()

	matchedIDs := make(map[string]bool)
	for _, m := range c.Matches() {
		for _, n := range m.New {
			matchedIDs[n.IssueID] = true
		}
	}

	var out []api.Issue
	for _, issue := range fresh {
		if matchedIDs[issue.ID] {
			out = append(out, issue)
		}
	}
	return out
}

func issueMetadata(issue api.Issue) issuecorrelation.IssueMetadata {
	page := 0
	if issue.Location != nil {
		page = issue.Location.PageNum
	}
	return issuecorrelation.Metadata(issue.ID, issue.Type, page, issue.Text)
}

// RulesState reports whether the applicable rule set drifted since the
// document was last reviewed. Callers gate a forced re-run on it.
func (r *Reviewer) RulesState(ctx context.Context) (*api.ReviewRulesState, error) {
	if r.session == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	return r.backend.RulesState(ctx, r.session.DocID())
}

// Accept marks an issue accepted, optionally with reviewer-edited fields.
// The session takes whatever entity the server returns; nothing is patched
// locally.
func (r *Reviewer) Accept(ctx context.Context, issueID string, modified *api.ModifiedFields) (*api.Issue, error) {
	return r.applyAction(func() (*api.Issue, error) {
		return r.backend.AcceptIssue(ctx, r.session.DocID(), issueID, modified)
	})
}

// Dismiss marks an issue dismissed, optionally with structured feedback.
func (r *Reviewer) Dismiss(ctx context.Context, issueID string, feedback *api.DismissalFeedback) (*api.Issue, error) {
	return r.applyAction(func() (*api.Issue, error) {
		return r.backend.DismissIssue(ctx, r.session.DocID(), issueID, feedback)
	})
}

// Feedback records reviewer feedback without changing the issue's status.
func (r *Reviewer) Feedback(ctx context.Context, issueID string, feedback api.DismissalFeedback) (*api.Issue, error) {
	return r.applyAction(func() (*api.Issue, error) {
		return r.backend.IssueFeedback(ctx, r.session.DocID(), issueID, feedback)
	})
}

// Decider reviews the action a gated run proposes.
type Decider func(api.ProposedAction) api.HITLDecision

// ResolveViaHITL runs the accept or dismiss through the human-in-the-loop
// gate: the backend pauses before executing its tool call, decide inspects
// the proposed action, and the run resumes with the verdict.
func (r *Reviewer) ResolveViaHITL(ctx context.Context, issueID string, req api.HITLStartRequest, decide Decider) (*api.Issue, error) {
	if r.session == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	started, err := r.backend.StartHITL(ctx, r.session.DocID(), issueID, req)
	if err != nil {
		return nil, err
	}
	decision := decide(started.ProposedAction)
	return r.applyAction(func() (*api.Issue, error) {
		return r.backend.ResumeHITL(ctx, r.session.DocID(), issueID, api.HITLResumeRequest{
			ThreadID:    started.ThreadID,
			InterruptID: started.InterruptID,
			Decision:    &decision,
		})
	})
}

// SelectIssue toggles the selection highlight for an issue. Issues without
// a bounding box can still be selected, they just get no highlight.
func (r *Reviewer) SelectIssue(issueID string) (bool, error) {
	if r.session == nil {
		return false, fmt.Errorf("no document loaded")
	}
	issue, ok := r.session.Get(issueID)
	if !ok {
		return false, fmt.Errorf("unknown issue %q", issueID)
	}
	if !issue.HasBoundingBox() {
		return false, nil
	}
	quad, ok := annotate.QuadFromBBox(issue.Location.BoundingBox)
	if !ok {
		// A box without four values cannot be drawn; treat it like no box.
		return false, nil
	}
	return r.selector.Select(issueID, issue.Location.PageNum, quad)
}

func (r *Reviewer) applyAction(call func() (*api.Issue, error)) (*api.Issue, error) {
	if r.session == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	updated, err := call()
	if err != nil {
		return nil, err
	}
	r.session.ApplyUpdate(*updated)
	return updated, nil
}

func (r *Reviewer) highlight(issues []api.Issue) {
	for _, issue := range issues {
		if !issue.HasBoundingBox() {
			continue
		}
		quad, ok := annotate.QuadFromBBox(issue.Location.BoundingBox)
		if !ok {
			continue
		}
		if _, err := r.canvas.Add(issue.Location.PageNum, quad, annotate.ColorIssue, annotate.DefaultOpacity); err != nil {
			r.logger.Warn("highlighting issue failed", "issue", issue.ID, "page", issue.Location.PageNum, "error", err)
		}
	}
}
