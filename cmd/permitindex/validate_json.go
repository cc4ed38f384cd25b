package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	rootschemas "github.com/jonathan/permitindex/schemas"

	"github.com/jonathan/permitindex/internal/schemas"
)

var validateJSONCmd = &cobra.Command{
	Use:   "validate-json",
	Short: "Validate a JSON file against an embedded schema",
	Long: `Validates permits.json (--schema export) or a feedback request body
(--schema feedback) against the JSON Schema bundled with the binary.`,
	RunE: runValidateJSON,
}

var (
	validateJSONInput  string
	validateJSONSchema string
)

func init() {
	validateJSONCmd.Flags().StringVarP(&validateJSONInput, "in", "i", "", "Path to the JSON file (required)")
	validateJSONCmd.Flags().StringVar(&validateJSONSchema, "schema", "export", "Schema to validate against: export or feedback")

	if err := validateJSONCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(validateJSONCmd)
}

func runValidateJSON(_ *cobra.Command, _ []string) error {
	var schema string
	switch validateJSONSchema {
	case "export":
		schema = rootschemas.PermitExport
	case "feedback":
		schema = rootschemas.FeedbackRequest
	default:
		return fmt.Errorf("invalid --schema %q (want export or feedback)", validateJSONSchema)
	}

	if _, err := os.Stat(validateJSONInput); os.IsNotExist(err) {
		return fmt.Errorf("JSON file not found: %s", validateJSONInput)
	}

	if err := schemas.ValidateJSONFile(schema, validateJSONInput); err != nil {
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			for _, fe := range validationErr.Errors {
				_, _ = fmt.Fprintf(os.Stderr, "  %s: %s\n", fe.Field, fe.Message)
			}
			return fmt.Errorf("validation failed: %d error(s)", len(validationErr.Errors))
		}
		return fmt.Errorf("failed to validate %s: %w", validateJSONInput, err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Validation passed: %s matches the %s schema\n", validateJSONInput, validateJSONSchema)
	return nil
}
