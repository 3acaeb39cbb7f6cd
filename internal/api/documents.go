package api

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/shared/files"
)

// ListDocuments returns the metadata of all uploaded documents.
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	var docs []Document
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetResult(&docs).
		Get("/api/v1/documents")
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return docs, nil
}

// UploadDocument uploads the PDF at path as a new document. The file is
// validated locally first so that non-PDF uploads never reach the network.
func (c *Client) UploadDocument(ctx context.Context, path, subtypeID string) (*Document, error) {
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

	var doc Document
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetFileReader("file", filepath.Base(path), f).
		SetFormData(formData).
		SetResult(&doc).
		Post("/api/v1/documents")
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	c.logger.Info("document uploaded", "id", doc.ID, "filename", doc.OriginalFilename)
	return &doc, nil
}

// GetDocument fetches the metadata of a single document.
func (c *Client) GetDocument(ctx context.Context, docID string) (*Document, error) {
	var doc Document
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetResult(&doc).
		Get(fmt.Sprintf("/api/v1/documents/%s", docID))
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument soft-deletes a document.
func (c *Client) DeleteDocument(ctx context.Context, docID string) error {
	resp, err := c.httpc.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/api/v1/documents/%s", docID))
	if err != nil {
		return err
	}
	return checkResponse(resp)
}

// DownloadDocumentFile fetches the raw PDF bytes of a document.
func (c *Client) DownloadDocumentFile(ctx context.Context, docID string) ([]byte, error) {
	resp, err := c.httpc.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/api/v1/documents/%s/file", docID))
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// DocumentIssues returns the stored issues of a past review without
// triggering a re-computation. For a fresh review use the stream package.
func (c *Client) DocumentIssues(ctx context.Context, docID string) ([]Issue, error) {
	var issues []Issue
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetResult(&issues).
		Get(fmt.Sprintf("/api/v1/documents/%s/issues", docID))
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return issues, nil
}

// ListDocumentTypes returns the hierarchical type catalog used to scope rules.
func (c *Client) ListDocumentTypes(ctx context.Context) ([]DocumentTypeWithSubtypes, error) {
	var types []DocumentTypeWithSubtypes
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetResult(&types).
		Get("/api/v1/document-types")
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return types, nil
}
