package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/shared/apierr"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(resty.New(), server.URL, hclog.NewNullLogger())
}

func TestListDocuments(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/documents", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":"doc-1","display_name":"msa.pdf"},{"id":"doc-2"}]`)
	}))

	docs, err := client.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "msa.pdf", docs[0].DisplayName)
}

func TestErrorMapping(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/documents/missing":
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"detail":"document not found"}`)
		case "/api/v1/documents/busy":
			w.WriteHeader(http.StatusServiceUnavailable)
			io.WriteString(w, `{"detail":"try again"}`)
		}
	}))

	_, err := client.GetDocument(context.Background(), "missing")
	require.Error(t, err)
	assert.False(t, apierr.IsRetriable(err))
	assert.Contains(t, err.Error(), "document not found")

	_, err = client.GetDocument(context.Background(), "busy")
	require.Error(t, err)
	assert.True(t, apierr.IsRetriable(err))
}

func TestUploadDocumentRejectsNonPDFLocally(t *testing.T) {
	var hits int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0644))

	_, err := client.UploadDocument(context.Background(), path, "")
	require.Error(t, err)
	assert.Zero(t, hits)
}

func TestUploadDocumentSendsMultipart(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "sub-7", r.FormValue("subtype_id"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "contract.pdf", header.Filename)
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 body", string(data))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"doc-9","original_filename":"contract.pdf"}`)
	}))

	path := filepath.Join(t.TempDir(), "contract.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 body"), 0644))

	doc, err := client.UploadDocument(context.Background(), path, "sub-7")
	require.NoError(t, err)
	assert.Equal(t, "doc-9", doc.ID)
}

func TestDocumentIssuesNormalizesStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/documents/doc-1/issues", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":"a","status":"not reviewed"},{"id":"b","status":"dismissed"}]`)
	}))

	issues, err := client.DocumentIssues(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, IssueStatusNotReviewed, issues[0].Status)
	assert.Equal(t, IssueStatusDismissed, issues[1].Status)
}

func TestAcceptIssueBodyOnlyWhenModified(t *testing.T) {
	var bodies []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/review/doc-1/issues/i-1/accept", r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"i-1","status":"accepted"}`)
	}))

	issue, err := client.AcceptIssue(context.Background(), "doc-1", "i-1", nil)
	require.NoError(t, err)
	assert.Equal(t, IssueStatusAccepted, issue.Status)

	_, err = client.AcceptIssue(context.Background(), "doc-1", "i-1", &ModifiedFields{SuggestedFix: "net 30 days"})
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Empty(t, bodies[0])

	var sent ModifiedFields
	require.NoError(t, json.Unmarshal([]byte(bodies[1]), &sent))
	assert.Equal(t, "net 30 days", sent.SuggestedFix)
}

func TestDismissIssueSendsFeedback(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/review/doc-1/issues/i-2/dismiss", r.URL.Path)
		var feedback DismissalFeedback
		require.NoError(t, json.NewDecoder(r.Body).Decode(&feedback))
		assert.Equal(t, "covered by addendum", feedback.Reason)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"i-2","status":"dismissed"}`)
	}))

	issue, err := client.DismissIssue(context.Background(), "doc-1", "i-2", &DismissalFeedback{Reason: "covered by addendum"})
	require.NoError(t, err)
	assert.Equal(t, IssueStatusDismissed, issue.Status)
}

func TestHITLRoundTrip(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/review/doc-1/issues/i-3/hitl/start":
			var req HITLStartRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "accept", req.Action)
			io.WriteString(w, `{"thread_id":"t-1","interrupt_id":"int-1","proposed_action":{"name":"accept_issue","args":{"issue_id":"i-3"}}}`)
		case "/api/v1/review/doc-1/issues/i-3/hitl/resume":
			var req HITLResumeRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "t-1", req.ThreadID)
			require.NotNil(t, req.Decision)
			assert.Equal(t, "approve", req.Decision.Type)
			io.WriteString(w, `{"id":"i-3","status":"accepted"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	started, err := client.StartHITL(context.Background(), "doc-1", "i-3", HITLStartRequest{Action: "accept"})
	require.NoError(t, err)
	assert.Equal(t, "accept_issue", started.ProposedAction.Name)

	issue, err := client.ResumeHITL(context.Background(), "doc-1", "i-3", HITLResumeRequest{
		ThreadID:    started.ThreadID,
		InterruptID: started.InterruptID,
		Decision:    &HITLDecision{Type: "approve"},
	})
	require.NoError(t, err)
	assert.Equal(t, IssueStatusAccepted, issue.Status)
}

func TestSetDocumentRule(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/review/doc-1/rules/r-1", r.URL.Path)
		var assoc DocumentRuleAssociation
		require.NoError(t, json.NewDecoder(r.Body).Decode(&assoc))
		assert.Equal(t, DocumentRuleAssociation{RuleID: "r-1", Enabled: false}, assoc)
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, client.SetDocumentRule(context.Background(), "doc-1", "r-1", false))
}

func TestRulesBySubtypeQuery(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/rules/by-subtype/sub-7", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("include_universal"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":"r-1","name":"Payment Terms"}]`)
	}))

	rules, err := client.RulesBySubtype(context.Background(), "sub-7", true)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "Payment Terms", rules[0].Name)
}

func TestRulesForReview(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/rules/for-review/sub-7", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":"r-1"},{"id":"r-2"}]`)
	}))

	rules, err := client.RulesForReview(context.Background(), "sub-7")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "r-2", rules[1].ID)
}
