package docs

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/shared/files"
)

// inspectPDF returns the page count and checksum of the PDF at path.
func inspectPDF(path string) (int, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read %q: %w", path, err)
	}
	pages, err := files.PageCount(data)
	if err != nil {
		return 0, "", err
	}
	sum, err := files.SHA256(path)
	if err != nil {
		return 0, "", err
	}
	return pages, sum, nil
}

// printJSON writes the value to stdout as indented JSON.
func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("error marshaling the result data: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
