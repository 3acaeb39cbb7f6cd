package docs

import (
	"fmt"

	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/shared/files"
)

// validateUploadArgs validates the arguments provided to the upload command.
func validateUploadArgs(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("exactly one file path argument is required")
	}
	path, err := files.ExpandPath(args[0])
	if err != nil {
		return "", err
	}
	if err := files.ValidatePDFPath(path); err != nil {
		return "", err
	}
	return path, nil
}

// validateDocIDArg validates commands taking a single document id argument.
func validateDocIDArg(args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("exactly one document id argument is required")
	}
	return args[0], nil
}

// validateDownloadArgs validates the arguments provided to the download command.
func validateDownloadArgs(outputPath *string, args []string) (string, error) {
	docID, err := validateDocIDArg(args)
	if err != nil {
		return "", err
	}
	if *outputPath == "" {
		return "", fmt.Errorf("the 'output' flag must be specified")
	}
	expanded, err := files.ExpandPath(*outputPath)
	if err != nil {
		return "", err
	}
	*outputPath = expanded
	return docID, nil
}
