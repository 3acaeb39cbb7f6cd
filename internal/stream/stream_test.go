package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhaoxiaowang1993/ai-doc-review/internal/api"
	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/shared/apierr"
)

func newRunner(t *testing.T, handler http.Handler, maxRetries int) (*Runner, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpc := resty.New().SetBaseURL(server.URL)
	return NewRunner(httpc, hclog.NewNullLogger(), maxRetries), server
}

func collect() (*[]api.Issue, *bool, Handlers) {
	var issues []api.Issue
	var complete bool
	h := Handlers{
		OnIssues:   func(batch []api.Issue) { issues = append(issues, batch...) },
		OnComplete: func() { complete = true },
	}
	return &issues, &complete, h
}

func sse(w http.ResponseWriter, event, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

func TestRunDeliversBatchesInOrder(t *testing.T) {
	runner, _ := newRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/review/doc-1/issues", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		sse(w, "issues", `[{"id":"a","status":"not reviewed"},{"id":"b","status":""}]`)
		sse(w, "issues", ``) // heartbeat
		sse(w, "issues", `[{"id":"c","status":"accepted"}]`)
		sse(w, "complete", "")
	}), 3)

	issues, complete, h := collect()
	require.NoError(t, runner.Run(context.Background(), RunOptions{DocID: "doc-1"}, h))

	require.Len(t, *issues, 3)
	assert.Equal(t, "a", (*issues)[0].ID)
	assert.Equal(t, "c", (*issues)[2].ID)
	// Status spellings are folded at the ingestion boundary.
	assert.Equal(t, api.IssueStatusNotReviewed, (*issues)[0].Status)
	assert.Equal(t, api.IssueStatusNotReviewed, (*issues)[1].Status)
	assert.Equal(t, api.IssueStatusAccepted, (*issues)[2].Status)
	assert.True(t, *complete)
}

func TestRunForwardsForceAndRuleIDs(t *testing.T) {
	runner, _ := newRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("force"))
		assert.Equal(t, []string{"r1", "r2"}, r.URL.Query()["rule_ids"])
		w.Header().Set("Content-Type", "text/event-stream")
		sse(w, "complete", "")
	}), 3)

	_, _, h := collect()
	require.NoError(t, runner.Run(context.Background(), RunOptions{DocID: "doc-1", Force: true, RuleIDs: []string{"r1", "r2"}}, h))
}

func TestRunRetriesOn503AndKeepsAccumulating(t *testing.T) {
	var calls int32
	runner, _ := newRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"detail":"model is busy"}`)
		default:
			w.Header().Set("Content-Type", "text/event-stream")
			sse(w, "issues", `[{"id":"b"}]`)
			sse(w, "complete", "")
		}
	}), 3)

	issues, complete, h := collect()
	// A batch delivered before the retriable failure stays delivered.
	*issues = append(*issues, api.Issue{ID: "a"})

	require.NoError(t, runner.Run(context.Background(), RunOptions{DocID: "doc-1"}, h))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	require.Len(t, *issues, 2)
	assert.Equal(t, "a", (*issues)[0].ID)
	assert.Equal(t, "b", (*issues)[1].ID)
	assert.True(t, *complete)
}

func TestRunGivesUpAfterRetryCeiling(t *testing.T) {
	var calls int32
	runner, _ := newRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"detail":"model is busy"}`)
	}), 2)

	_, _, h := collect()
	err := runner.Run(context.Background(), RunOptions{DocID: "doc-1"}, h)
	require.Error(t, err)
	assert.True(t, apierr.IsRetriable(err))
	// Initial attempt plus two retries.
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRunNon503IsFatalWithoutRetry(t *testing.T) {
	var calls int32
	runner, _ := newRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"detail":"document not found"}`)
	}), 3)

	_, _, h := collect()
	err := runner.Run(context.Background(), RunOptions{DocID: "ghost"}, h)
	require.Error(t, err)
	assert.False(t, apierr.IsRetriable(err))
	assert.Contains(t, err.Error(), "document not found")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRunErrorEventIsVerbatimAndFatal(t *testing.T) {
	runner, _ := newRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		sse(w, "issues", `[{"id":"a"}]`)
		sse(w, "error", "review engine ran out of context")
	}), 3)

	issues, complete, h := collect()
	err := runner.Run(context.Background(), RunOptions{DocID: "doc-1"}, h)
	require.Error(t, err)
	assert.Equal(t, "review engine ran out of context", err.Error())
	assert.False(t, apierr.IsRetriable(err))
	// The batch before the failure was still delivered.
	assert.Len(t, *issues, 1)
	assert.False(t, *complete)
}

func TestRunUnknownEventIsFatal(t *testing.T) {
	runner, _ := newRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		sse(w, "progress", "42")
	}), 3)

	_, _, h := collect()
	err := runner.Run(context.Background(), RunOptions{DocID: "doc-1"}, h)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stream event")
}

func TestRunMalformedIssuesPayloadIsFatal(t *testing.T) {
	runner, _ := newRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		sse(w, "issues", `{"not":"an array"}`)
	}), 3)

	_, _, h := collect()
	err := runner.Run(context.Background(), RunOptions{DocID: "doc-1"}, h)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed issues payload")
}

func TestRunEOFWithoutCompleteIsFatal(t *testing.T) {
	runner, _ := newRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		sse(w, "issues", `[{"id":"a"}]`)
		// Connection closes with no complete event.
	}), 3)

	_, _, h := collect()
	err := runner.Run(context.Background(), RunOptions{DocID: "doc-1"}, h)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ended before completion")
}

func TestRunCancellationReturnsContextError(t *testing.T) {
	release := make(chan struct{})
	runner, _ := newRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		sse(w, "issues", `[{"id":"a"}]`)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}), 3)
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	_, _, h := collect()
	onIssues := h.OnIssues
	h.OnIssues = func(batch []api.Issue) {
		onIssues(batch)
		cancel()
	}

	err := runner.Run(ctx, RunOptions{DocID: "doc-1"}, h)
	assert.ErrorIs(t, err, context.Canceled)
}
