package session

import "github.com/zhaoxiaowang1993/ai-doc-review/internal/api"

// Risk is the severity bucket an issue falls into.
type Risk string

const (
	RiskHigh   Risk = "high"
	RiskMedium Risk = "medium"
	RiskLow    Risk = "low"
)

// Builtin issue types carry a fixed severity; everything else, including
// rule-derived types, defaults to medium.
func defaultTypeRisk() map[string]Risk {
	return map[string]Risk{
		"Definitive Language": RiskHigh,
		"Grammar & Spelling":  RiskLow,
	}
}

// ParseRisk normalizes a per-issue risk override. The server emits both
// english and chinese labels.
func ParseRisk(raw string) (Risk, bool) {
	switch raw {
	case "high", "高":
		return RiskHigh, true
	case "medium", "中":
		return RiskMedium, true
	case "low", "低":
		return RiskLow, true
	default:
		return "", false
	}
}

// EffectiveRisk resolves an issue's severity: the per-issue override wins,
// then the type lookup, then medium.
func (s *Session) EffectiveRisk(issue api.Issue) Risk {
	if r, ok := ParseRisk(issue.RiskLevel); ok {
		return r
	}
	if r, ok := s.typeRisk[issue.Type]; ok {
		return r
	}
	return RiskMedium
}

// Metrics is the summary derived from the full, unfiltered issue list.
type Metrics struct {
	Total     int
	Processed int
	High      int
	Medium    int
	Low       int
	HighOpen  int
}

// Metrics computes the summary over all issues regardless of active filters.
func (s *Session) Metrics() Metrics {
	var m Metrics
	m.Total = len(s.issues)
	for _, issue := range s.issues {
		resolved := issue.Resolved()
		if resolved {
			m.Processed++
		}
		switch s.EffectiveRisk(issue) {
		case RiskHigh:
			m.High++
			if !resolved {
				m.HighOpen++
			}
		case RiskLow:
			m.Low++
		default:
			m.Medium++
		}
	}
	return m
}

// Conclusion is the overall review verdict.
type Conclusion string

const (
	// ConclusionNone means the review produced no issues at all.
	ConclusionNone Conclusion = "no_issues"
	// ConclusionRemediation means unresolved high-risk issues remain.
	ConclusionRemediation Conclusion = "remediation_needed"
	// ConclusionReady means every issue has been accepted or dismissed.
	ConclusionReady Conclusion = "ready_to_conclude"
	// ConclusionInReview means open issues remain but none of them high risk.
	ConclusionInReview Conclusion = "in_review"
)

// Conclusion derives the verdict from the metrics. Open high-risk issues
// dominate: a review cannot be ready to conclude while any remain.
func (m Metrics) Conclusion() Conclusion {
	switch {
	case m.Total == 0:
		return ConclusionNone
	case m.HighOpen > 0:
		return ConclusionRemediation
	case m.Processed == m.Total:
		return ConclusionReady
	default:
		return ConclusionInReview
	}
}
