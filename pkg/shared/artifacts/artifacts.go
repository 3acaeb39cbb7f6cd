package artifacts

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/shared/files"
)

// GetReportName builds a report file name.
// Example: review_doc-42_2026-08-31T08:28:46Z.docreview-report.
func GetReportName(command, docID string, t time.Time) string {
	ts := t.UTC().Format(time.RFC3339)
	return fmt.Sprintf("%s_%s_%s.docreview-report", command, docID, ts)
}

// SaveReportJSON writes the provided result to <dir>/<report name>.json and
// returns the full path.
func SaveReportJSON(dir string, logger hclog.Logger, command, docID string, result interface{}) (string, error) {
	base := GetReportName(command, docID, time.Now())
	path := filepath.Join(dir, base+".json")

	resultData, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return path, fmt.Errorf("error marshaling the result data: %w", err)
	}

	if err := files.WriteJsonFile(path, resultData); err != nil {
		return path, fmt.Errorf("error writing result to report file: %w", err)
	}
	logger.Info("report saved to file", "path", path)

	return path, nil
}
