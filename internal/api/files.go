package api

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/shared/files"
)

// The filename-addressed blob endpoints predate the documents API. They are
// kept for backends that still expose them; new code should prefer the
// document-id based calls in documents.go.

// ListFiles returns the names of all stored blobs.
func (c *Client) ListFiles(ctx context.Context) ([]string, error) {
	var names []string
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetResult(&names).
		Get("/api/v1/files")
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return names, nil
}

// UploadFile uploads a PDF through the legacy blob endpoint. Depending on
// backend generation the response may or may not carry a document id.
func (c *Client) UploadFile(ctx context.Context, path, subtypeID string) (*UploadFileResponse, error) {
	if err := files.ValidatePDFPath(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	formData := map[string]string{}
	if subtypeID != "" {
		formData["subtype_id"] = subtypeID
	}

	var out UploadFileResponse
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetFileReader("file", filepath.Base(path), f).
		SetFormData(formData).
		SetResult(&out).
		Post("/api/v1/files/upload")
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteFile removes a blob by filename.
func (c *Client) DeleteFile(ctx context.Context, name string) error {
	resp, err := c.httpc.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/api/v1/files/%s", name))
	if err != nil {
		return err
	}
	return checkResponse(resp)
}
