package issuecorrelation

// IssueMetadata describes the minimal metadata required to correlate issues
// across review runs.
// Fields:
//   - IssueID: identifier in the review session, not used by correlation logic.
//   - Type: the issue type or rule name that produced the finding.
//   - PageNum: 1-based page the finding sits on, 0 when unlocated.
//   - TextHash: fingerprint of the flagged text, see TextHash().
type IssueMetadata struct {
	IssueID  string
	Type     string
	PageNum  int
	TextHash string
}

// Metadata builds IssueMetadata from raw issue fields, fingerprinting text.
func Metadata(issueID, issueType string, pageNum int, text string) IssueMetadata {
	return IssueMetadata{
		IssueID:  issueID,
		Type:     issueType,
		PageNum:  pageNum,
		TextHash: TextHash(text),
	}
}

// Match groups a single known issue with the list of new issues that were
// correlated to it. A new issue may appear in multiple Match.New slices if it
// correlates to multiple known issues.
type Match struct {
	Known IssueMetadata
	New   []IssueMetadata
}

// Correlator accepts slices of new and known issues and computes correlations
// between them. Use NewCorrelator to create an instance and call Process() to
// compute matches. After processing, use Matches(), UnmatchedNew() and
// UnmatchedKnown() to inspect results. The correlator preserves many-to-many
// relationships: a known issue may match multiple new issues and vice versa.
type Correlator struct {
	NewIssues   []IssueMetadata
	KnownIssues []IssueMetadata

	// internal indexes populated by Process()
	knownToNew map[int][]int // known index -> list of new indices
	newToKnown map[int][]int // new index -> list of known indices

	processed bool
}

// NewCorrelator constructs a Correlator with the provided slices of new and
// known issues. The correlator is inert until Process() is called.
func NewCorrelator(newIssues, knownIssues []IssueMetadata) *Correlator {
	return &Correlator{
		NewIssues:   newIssues,
		KnownIssues: knownIssues,
	}
}

// Process computes correlations between every known and every new issue using
// three ordered stages. Once a known or new issue has been matched in an
// earlier stage it is excluded from later stages. The stages are:
// 1) type + page + text fingerprint
// 2) type + text fingerprint (the text moved to another page)
// 3) type + page (the flagged text was rephrased in place)
// The results are stored internally and can be retrieved via Matches(),
// UnmatchedNew() and UnmatchedKnown(). Process is idempotent.
func (c *Correlator) Process() {
	if c.processed {
		return
	}
	c.knownToNew = make(map[int][]int)
	c.newToKnown = make(map[int][]int)

	// matchedKnown/matchedNew track indices already matched in earlier stages
	// and therefore excluded from later stages. The per-stage sets allow
	// multiple matches within the same stage.
	matchedKnown := make(map[int]bool)
	matchedNew := make(map[int]bool)

	stages := []int{1, 2, 3}
	for _, stage := range stages {
		matchedKnownThis := make(map[int]bool)
		matchedNewThis := make(map[int]bool)

		for ki, k := range c.KnownIssues {
			if matchedKnown[ki] {
				continue
			}
			for ni, n := range c.NewIssues {
				if matchedNew[ni] {
					continue
				}

				if matchStage(k, n, stage) {
					c.knownToNew[ki] = append(c.knownToNew[ki], ni)
					c.newToKnown[ni] = append(c.newToKnown[ni], ki)
					matchedKnownThis[ki] = true
					matchedNewThis[ni] = true
				}
			}
		}

		// promote this stage's matches to the global matched sets so they are
		// excluded from subsequent stages.
		for ki := range matchedKnownThis {
			matchedKnown[ki] = true
		}
		for ni := range matchedNewThis {
			matchedNew[ni] = true
		}
	}

	c.processed = true
}

// matchStage applies the specified stage matching rules. It returns true when
// the two IssueMetadata values should be considered a match for the given
// stage. The issue type is required for all stages.
func matchStage(a, b IssueMetadata, stage int) bool {
	if a.Type == "" || b.Type == "" || a.Type != b.Type {
		return false
	}

	switch stage {
	case 1:
		return a.TextHash != "" && a.PageNum == b.PageNum && a.TextHash == b.TextHash
	case 2:
		return a.TextHash != "" && a.TextHash == b.TextHash
	case 3:
		return a.PageNum > 0 && a.PageNum == b.PageNum
	default:
		return false
	}
}

// UnmatchedNew returns the subset of new issues that were not correlated to
// any known issue after Process() has been executed. If Process() has not
// yet been run it will be invoked.
func (c *Correlator) UnmatchedNew() []IssueMetadata {
	if !c.processed {
		c.Process()
	}

	var out []IssueMetadata
	for ni, n := range c.NewIssues {
		if len(c.newToKnown[ni]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// UnmatchedKnown returns the subset of known issues that were not correlated
// to any new issue after Process() has been executed. If Process() has not
// yet been run it will be invoked.
func (c *Correlator) UnmatchedKnown() []IssueMetadata {
	if !c.processed {
		c.Process()
	}

	var out []IssueMetadata
	for ki, k := range c.KnownIssues {
		if len(c.knownToNew[ki]) == 0 {
			out = append(out, k)
		}
	}
	return out
}

// Matches returns a slice of Match entries describing each known issue that
// had at least one correlated new issue. Each Match contains the known issue
// and the list of new issues correlated to it. If Process() has not been run
// it will be invoked.
func (c *Correlator) Matches() []Match {
	if !c.processed {
		c.Process()
	}

	var out []Match
	for ki, newIdxs := range c.knownToNew {
		if len(newIdxs) == 0 {
			continue
		}
		m := Match{Known: c.KnownIssues[ki], New: make([]IssueMetadata, 0, len(newIdxs))}
		for _, ni := range newIdxs {
			if ni >= 0 && ni < len(c.NewIssues) {
				m.New = append(m.New, c.NewIssues[ni])
			}
		}
		out = append(out, m)
	}
	return out
}
