package annotate

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// onePagePDF assembles a minimal single-page document with a correct xref
// table, the smallest input the renderer accepts.
func onePagePDF() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n",
	}
	offsets := make([]int, len(objects)+1)
	for i, obj := range objects {
		offsets[i+1] = buf.Len()
		buf.WriteString(obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets[1:] {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestOverlayAddDeleteRoundTrip(t *testing.T) {
	o, err := NewOverlay(onePagePDF())
	require.NoError(t, err)
	// The initial rendering already carries the placeholder layer.
	require.True(t, bytes.HasPrefix(o.Bytes(), []byte("%PDF")))

	quad, ok := QuadFromBBox([]float64{10, 20, 100, 35})
	require.True(t, ok)

	id, err := o.Add(1, quad, ColorIssue, 0.5)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Len(t, o.Highlights(), 1)

	require.NoError(t, o.Delete(id))
	assert.Empty(t, o.Highlights())
	assert.True(t, bytes.HasPrefix(o.Bytes(), []byte("%PDF")))
}

func TestOverlayDeleteUnknownHandle(t *testing.T) {
	o, err := NewOverlay(onePagePDF())
	require.NoError(t, err)

	err = o.Delete("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown highlight")
}

func TestOverlayRejectsInvalidPage(t *testing.T) {
	o, err := NewOverlay(onePagePDF())
	require.NoError(t, err)

	_, err = o.Add(0, Quad{}, ColorIssue, 0.5)
	require.Error(t, err)
	require.Empty(t, o.Highlights())
}
