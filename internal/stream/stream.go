package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/zhaoxiaowang1993/ai-doc-review/internal/api"
	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/shared/apierr"
)

// errComplete signals normal stream termination internally.
var errComplete = errors.New("stream complete")

// Handlers receive the stream's payloads. OnIssues is invoked once per
// issues event, in arrival order; previously delivered batches are never
// withdrawn, not even when the stream is reopened after a retriable failure.
type Handlers struct {
	OnIssues   func(issues []api.Issue)
	OnComplete func()
}

// RunOptions parameterize one review stream request.
type RunOptions struct {
	DocID string
	// Force bypasses the backend's cached review result.
	Force bool
	// RuleIDs restricts the review to the given enabled rules.
	RuleIDs []string
}

// Runner opens the server-sent-event stream that recomputes a document's
// issues. A 503 on open is retriable up to the configured ceiling; every
// other failure is fatal. The runner never buffers issues itself, so a
// reopen transparently appends to whatever the caller accumulated so far.
type Runner struct {
	httpc      *resty.Client
	logger     hclog.Logger
	maxRetries int
}

// NewRunner creates a stream Runner on top of the shared resty client.
func NewRunner(httpc *resty.Client, logger hclog.Logger, maxRetries int) *Runner {
	return &Runner{
		httpc:      httpc,
		logger:     logger,
		maxRetries: maxRetries,
	}
}

// Run consumes one review stream until completion. It returns nil after a
// complete event, ctx.Err() when cancelled (cancellation is not an error of
// the stream and must not be surfaced as one) and a fatal error otherwise.
// Retriable failures are retried internally and only reported once the
// ceiling is exhausted.
func (r *Runner) Run(ctx context.Context, opts RunOptions, h Handlers) error {
	params := url.Values{}
	if opts.Force {
		params.Set("force", "true")
	}
	for _, id := range opts.RuleIDs {
		params.Add("rule_ids", id)
	}

	retries := 0
	for {
		err := r.consumeOnce(ctx, opts.DocID, params, h)
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			// Cancelled: swallow whatever the aborted read produced.
			return ctx.Err()
		case apierr.IsRetriable(err) && retries < r.maxRetries:
			retries++
			r.logger.Warn("review stream interrupted, retrying", "attempt", retries, "max", r.maxRetries, "error", err)
		default:
			return err
		}
	}
}

// consumeOnce opens the stream and dispatches events until it terminates.
func (r *Runner) consumeOnce(ctx context.Context, docID string, params url.Values, h Handlers) error {
	resp, err := r.httpc.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetQueryParamsFromValues(params).
		SetHeader("Accept", "text/event-stream").
		Get(fmt.Sprintf("/api/v1/review/%s/issues", docID))
	if err != nil {
		return err
	}

	body := resp.RawBody()
	defer body.Close()

	if !resp.IsSuccess() {
		payload, _ := io.ReadAll(io.LimitReader(body, 64*1024))
		return apierr.FromResponse(resp.StatusCode(), resp.Status(), payload)
	}

	r.logger.Debug("review stream opened", "doc_id", docID)

	err = decodeEvents(body, func(ev Event) error {
		return r.dispatch(ev, h)
	})
	if errors.Is(err, errComplete) {
		if h.OnComplete != nil {
			h.OnComplete()
		}
		return nil
	}
	if err != nil {
		return err
	}

	// The server closed the stream without a complete event.
	return apierr.NewFatal("review stream ended before completion")
}

func (r *Runner) dispatch(ev Event, h Handlers) error {
	switch ev.Name {
	case EventIssues:
		// An empty issues event is a heartbeat for a batch with nothing in it.
		if ev.Data == "" {
			return nil
		}
		var issues []api.Issue
		if err := json.Unmarshal([]byte(ev.Data), &issues); err != nil {
			return apierr.NewFatal(fmt.Sprintf("malformed issues payload: %v", err))
		}
		if h.OnIssues != nil {
			h.OnIssues(issues)
		}
		return nil

	case EventError:
		// The message travels verbatim to the caller.
		return apierr.NewFatal(ev.Data)

	case EventComplete:
		return errComplete

	default:
		return apierr.NewFatal(fmt.Sprintf("unknown stream event: %q", ev.Name))
	}
}
