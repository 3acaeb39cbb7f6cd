package issuecorrelation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHash(t *testing.T) {
	assert.Equal(t, TextHash("Payment  due upon completion"), TextHash("payment due\nupon completion"))
	assert.NotEqual(t, TextHash("payment due"), TextHash("payment overdue"))
	assert.Empty(t, TextHash(""))
	assert.Empty(t, TextHash("   \n\t "))
}

func TestProcessStageOne(t *testing.T) {
	known := []IssueMetadata{Metadata("k1", "Definitive Language", 3, "shall always deliver")}
	new_ := []IssueMetadata{
		Metadata("n1", "Definitive Language", 3, "shall always deliver"),
		Metadata("n2", "Definitive Language", 5, "completely unrelated"),
	}

	c := NewCorrelator(new_, known)
	c.Process()

	matches := c.Matches()
	require.Len(t, matches, 1)
	assert.Equal(t, "k1", matches[0].Known.IssueID)
	require.Len(t, matches[0].New, 1)
	assert.Equal(t, "n1", matches[0].New[0].IssueID)

	unmatched := c.UnmatchedNew()
	require.Len(t, unmatched, 1)
	assert.Equal(t, "n2", unmatched[0].IssueID)
}

func TestProcessMatchesAcrossPages(t *testing.T) {
	// Same text resurfacing on another page still correlates (stage 2).
	known := []IssueMetadata{Metadata("k1", "Grammar & Spelling", 2, "teh contract")}
	new_ := []IssueMetadata{Metadata("n1", "Grammar & Spelling", 4, "teh  CONTRACT")}

	c := NewCorrelator(new_, known)
	c.Process()

	require.Len(t, c.Matches(), 1)
	assert.Empty(t, c.UnmatchedKnown())
}

func TestProcessMatchesRephrasedInPlace(t *testing.T) {
	// Same type on the same page with different text correlates (stage 3).
	known := []IssueMetadata{Metadata("k1", "Payment Terms", 7, "payment due upon completion")}
	new_ := []IssueMetadata{Metadata("n1", "Payment Terms", 7, "payment due when work concludes")}

	c := NewCorrelator(new_, known)
	c.Process()

	require.Len(t, c.Matches(), 1)
}

func TestProcessRequiresType(t *testing.T) {
	known := []IssueMetadata{Metadata("k1", "", 1, "same text")}
	new_ := []IssueMetadata{Metadata("n1", "", 1, "same text")}

	c := NewCorrelator(new_, known)
	c.Process()

	assert.Empty(t, c.Matches())
	assert.Len(t, c.UnmatchedNew(), 1)
	assert.Len(t, c.UnmatchedKnown(), 1)
}

func TestProcessDifferentTypesNeverMatch(t *testing.T) {
	known := []IssueMetadata{Metadata("k1", "Payment Terms", 1, "same text")}
	new_ := []IssueMetadata{Metadata("n1", "Definitive Language", 1, "same text")}

	c := NewCorrelator(new_, known)
	c.Process()

	assert.Empty(t, c.Matches())
}

func TestProcessUnlocatedIssuesNeedTextToMatch(t *testing.T) {
	// Page 0 means unlocated; stage 3 must not pair those up.
	known := []IssueMetadata{Metadata("k1", "Payment Terms", 0, "alpha")}
	new_ := []IssueMetadata{Metadata("n1", "Payment Terms", 0, "beta")}

	c := NewCorrelator(new_, known)
	c.Process()

	assert.Empty(t, c.Matches())
}

func TestEarlierStageExcludesLaterOnes(t *testing.T) {
	// k1 matches n1 exactly in stage 1; the stage 3 pairing of k1 with the
	// rephrased n2 on the same page must then be skipped.
	known := []IssueMetadata{Metadata("k1", "Payment Terms", 2, "net 90 days")}
	new_ := []IssueMetadata{
		Metadata("n1", "Payment Terms", 2, "net 90 days"),
		Metadata("n2", "Payment Terms", 2, "net ninety days"),
	}

	c := NewCorrelator(new_, known)
	c.Process()

	matches := c.Matches()
	require.Len(t, matches, 1)
	require.Len(t, matches[0].New, 1)
	assert.Equal(t, "n1", matches[0].New[0].IssueID)

	unmatched := c.UnmatchedNew()
	require.Len(t, unmatched, 1)
	assert.Equal(t, "n2", unmatched[0].IssueID)
}

func TestProcessIsIdempotent(t *testing.T) {
	known := []IssueMetadata{Metadata("k1", "Payment Terms", 2, "net 90 days")}
	new_ := []IssueMetadata{Metadata("n1", "Payment Terms", 2, "net 90 days")}

	c := NewCorrelator(new_, known)
	c.Process()
	c.Process()

	assert.Len(t, c.Matches(), 1)
}
