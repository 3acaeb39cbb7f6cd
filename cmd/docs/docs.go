package docs

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/zhaoxiaowang1993/ai-doc-review/internal/api"
	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/shared/config"
)

// Global variables for configuration and command arguments
var (
	AppConfig *config.Config
	logger    hclog.Logger
	client    *api.Client

	docsOptions struct {
		SubtypeID  string
		OutputPath string
	}

	exampleDocsUsage = `  # List all uploaded documents
  docreview docs list

  # Upload a contract as a specific subtype
  docreview docs upload --subtype msa-subtype-id /path/to/contract.pdf

  # Show one document's metadata and its document type catalog
  docreview docs show DOC_ID

  # Download the stored file
  docreview docs download -o /path/to/out.pdf DOC_ID

  # Soft delete a document
  docreview docs delete DOC_ID`
)

// DocsCmd groups the document management commands.
var DocsCmd = &cobra.Command{
	Use:                   "docs [command]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleDocsUsage,
	Short:                 "Manage uploaded documents",
}

// Init initializes the global configuration variables for the docs commands.
func Init(cfg *config.Config, l hclog.Logger, c *api.Client) {
	AppConfig = cfg
	logger = l
	client = c
}

var listCmd = &cobra.Command{
	Use:                   "list",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "List uploaded documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		documents, err := client.ListDocuments(cmd.Context())
		if err != nil {
			logger.Error("listing documents failed", "error", err)
			return err
		}
		return printJSON(documents)
	},
}

var uploadCmd = &cobra.Command{
	Use:                   "upload [--subtype SUBTYPE_ID] PATH",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Upload a PDF document for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := validateUploadArgs(args)
		if err != nil {
			logger.Error("invalid upload arguments", "error", err)
			return err
		}

		pages, sum, err := inspectPDF(path)
		if err != nil {
			logger.Error("inspecting document failed", "path", path, "error", err)
			return err
		}
		logger.Info("uploading document", "path", path, "pages", pages, "sha256", sum)

		doc, err := client.UploadDocument(cmd.Context(), path, docsOptions.SubtypeID)
		if err != nil {
			logger.Error("upload failed", "path", path, "error", err)
			return err
		}
		logger.Info("document uploaded", "doc", doc.ID, "name", doc.DisplayName)
		return printJSON(doc)
	},
}

var showCmd = &cobra.Command{
	Use:                   "show DOC_ID",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Show a document's metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		docID, err := validateDocIDArg(args)
		if err != nil {
			logger.Error("invalid show arguments", "error", err)
			return err
		}

		doc, err := client.GetDocument(cmd.Context(), docID)
		if err != nil {
			logger.Error("fetching document failed", "doc", docID, "error", err)
			return err
		}
		return printJSON(doc)
	},
}

var deleteCmd = &cobra.Command{
	Use:                   "delete DOC_ID",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Delete a document",
	RunE: func(cmd *cobra.Command, args []string) error {
		docID, err := validateDocIDArg(args)
		if err != nil {
			logger.Error("invalid delete arguments", "error", err)
			return err
		}

		if err := client.DeleteDocument(cmd.Context(), docID); err != nil {
			logger.Error("deleting document failed", "doc", docID, "error", err)
			return err
		}
		logger.Info("document deleted", "doc", docID)
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:                   "download --output/-o PATH DOC_ID",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Download a document's stored file",
	RunE: func(cmd *cobra.Command, args []string) error {
		docID, err := validateDownloadArgs(&docsOptions.OutputPath, args)
		if err != nil {
			logger.Error("invalid download arguments", "error", err)
			return err
		}

		data, err := client.DownloadDocumentFile(cmd.Context(), docID)
		if err != nil {
			logger.Error("downloading document failed", "doc", docID, "error", err)
			return err
		}
		if err := os.WriteFile(docsOptions.OutputPath, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", docsOptions.OutputPath, err)
		}
		logger.Info("document saved", "doc", docID, "path", docsOptions.OutputPath, "bytes", len(data))
		return nil
	},
}

var typesCmd = &cobra.Command{
	Use:                   "types",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "List document types with their subtypes",
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := client.ListDocumentTypes(cmd.Context())
		if err != nil {
			logger.Error("listing document types failed", "error", err)
			return err
		}
		return printJSON(types)
	},
}

func init() {
	uploadCmd.Flags().StringVar(&docsOptions.SubtypeID, "subtype", "", "Subtype ID classifying the document (e.g., a contract subtype).")
	downloadCmd.Flags().StringVarP(&docsOptions.OutputPath, "output", "o", "", "Path where the downloaded file will be saved.")

	DocsCmd.AddCommand(listCmd, uploadCmd, showCmd, deleteCmd, downloadCmd, typesCmd)
}
