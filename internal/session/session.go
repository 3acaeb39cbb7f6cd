package session

import (
	"sort"
	"strings"

	"github.com/zhaoxiaowang1993/ai-doc-review/internal/api"
)

// Session owns the authoritative in-memory issue list of the active
// document. It is a cache of server state: mutations enter exclusively
// through ApplyIncoming (streamed batches) and ApplyUpdate (canonical
// entities returned by issue actions); nothing is ever computed locally.
// Single-goroutine use is assumed.
type Session struct {
	docID    string
	issues   []api.Issue
	typeRisk map[string]Risk
	finished bool
}

// NewSession creates an empty session for the given document.
func NewSession(docID string) *Session {
	return &Session{
		docID:    docID,
		typeRisk: defaultTypeRisk(),
	}
}

// SetTypeRisk replaces the type-to-risk lookup used for issues that carry no
// risk level of their own.
func (s *Session) SetTypeRisk(typeRisk map[string]Risk) {
	if typeRisk != nil {
		s.typeRisk = typeRisk
	}
}

// DocID returns the document the session belongs to.
func (s *Session) DocID() string {
	return s.docID
}

// Reset drops all issues and the finished flag. Called at the start of a
// run; never called on mid-stream retries, so reopened streams append to
// what was already delivered.
func (s *Session) Reset() {
	s.issues = nil
	s.finished = false
}

// ApplyIncoming appends a streamed batch to the list. The merge is
// append-only and does not deduplicate: issues are unique by construction
// on the server.
func (s *Session) ApplyIncoming(newIssues []api.Issue) {
	s.issues = append(s.issues, newIssues...)
}

// ApplyUpdate replaces the issue with a matching id in place. Unknown ids
// are a no-op; the update may race a stream that has not delivered the
// issue yet.
func (s *Session) ApplyUpdate(updated api.Issue) bool {
	for i := range s.issues {
		if s.issues[i].ID == updated.ID {
			s.issues[i] = updated
			return true
		}
	}
	return false
}

// Get returns the issue with the given id.
func (s *Session) Get(issueID string) (api.Issue, bool) {
	for i := range s.issues {
		if s.issues[i].ID == issueID {
			return s.issues[i], true
		}
	}
	return api.Issue{}, false
}

// Len returns the total number of issues.
func (s *Session) Len() int {
	return len(s.issues)
}

// Issues returns a copy of the full list in arrival order.
func (s *Session) Issues() []api.Issue {
	out := make([]api.Issue, len(s.issues))
	copy(out, s.issues)
	return out
}

// MarkFinished records normal stream completion.
func (s *Session) MarkFinished() {
	s.finished = true
}

// Finished reports whether the stream completed normally.
func (s *Session) Finished() bool {
	return s.finished
}

// FilterOptions narrow the derived issue view. Zero values select everything.
type FilterOptions struct {
	// Statuses keeps only issues whose status is in the set. Empty keeps all.
	Statuses []api.IssueStatus
	// HideTypes drops issues whose type is in the set.
	HideTypes []string
	// Query keeps issues whose text, explanation or suggested fix contains
	// the trimmed substring.
	Query string
}

// Filtered returns the issues passing the filter, sorted by page number
// ascending. The sort is stable so issues on the same page keep their
// arrival order. The underlying list is never reordered.
func (s *Session) Filtered(opts FilterOptions) []api.Issue {
	statuses := make(map[api.IssueStatus]bool, len(opts.Statuses))
	for _, st := range opts.Statuses {
		statuses[st] = true
	}
	hidden := make(map[string]bool, len(opts.HideTypes))
	for _, t := range opts.HideTypes {
		hidden[t] = true
	}
	query := strings.TrimSpace(opts.Query)

	var out []api.Issue
	for _, issue := range s.issues {
		if len(statuses) > 0 && !statuses[issue.Status] {
			continue
		}
		if hidden[issue.Type] {
			continue
		}
		if query != "" && !matchesQuery(issue, query) {
			continue
		}
		out = append(out, issue)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return pageOf(out[i]) < pageOf(out[j])
	})
	return out
}

func matchesQuery(issue api.Issue, query string) bool {
	return strings.Contains(issue.Text, query) ||
		strings.Contains(issue.Explanation, query) ||
		strings.Contains(issue.SuggestedFix, query)
}

func pageOf(issue api.Issue) int {
	if issue.Location == nil {
		return 0
	}
	return issue.Location.PageNum
}

// TypeCount is one entry of the per-type tally.
type TypeCount struct {
	Type  string
	Count int
}

// TypeTally counts issues per type, most frequent first. Ties are broken by
// type name so the output is deterministic.
func (s *Session) TypeTally() []TypeCount {
	counts := make(map[string]int)
	for _, issue := range s.issues {
		counts[issue.Type]++
	}

	out := make([]TypeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TypeCount{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}
