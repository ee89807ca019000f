package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mheg/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Groups   int                        `json:"groups"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <carousel-dir>",
		Short: "Validate a carousel without running it",
		Long: `Decode every group file of a carousel and check it.

Reports compile errors, structural errors, unknown actions and transition
targets missing from the carousel. Link cycles are reported as warnings
and do not fail validation.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	formatter.Carousel = dir

	loadResult, loadErrors := LoadCarousel(dir, LoadModeCollectAll)
	if loadResult == nil {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d group file(s) in %s", loadResult.FileCount, dir)

	result := ValidationResult{Groups: loadResult.FileCount}
	for _, err := range loadErrors {
		result.Errors = append(result.Errors, loadErrorToValidation(err))
	}
	result.Errors = append(result.Errors, compiler.ValidateCarousel(loadResult.Groups)...)
	result.Warnings = compiler.AnalyzeCycles(loadResult.Groups)
	result.Valid = len(result.Errors) == 0

	return outputValidation(formatter, result)
}

func loadErrorToValidation(err error) compiler.ValidationError {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		return compiler.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric}
	}
	field := "load"
	if loadErr.Pos.IsValid() {
		field = fmt.Sprintf("line %d", loadErr.Pos.Line())
	}
	return compiler.ValidationError{
		Group:   string(loadErr.Group),
		Field:   field,
		Message: loadErr.Message,
		Code:    loadErr.Code,
	}
}

// outputValidateError outputs a carousel that could not be opened at all.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(CLIError{Code: code, Message: message})
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

func outputValidation(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		var cerr *CLIError
		if !result.Valid {
			first := result.Errors[0]
			cerr = &CLIError{Code: first.Code, Message: first.Message, Group: first.Group}
		}
		if err := formatter.Respond(result, cerr); err != nil {
			return err
		}
	} else {
		if result.Valid {
			fmt.Fprintf(formatter.Writer, "✓ All %d group(s) valid\n", result.Groups)
		} else {
			fmt.Fprintln(formatter.Writer, "✗ Validation failed")
			fmt.Fprintln(formatter.Writer)
			for _, err := range result.Errors {
				fmt.Fprintf(formatter.Writer, "  %s\n", err.Error())
			}
		}
		for _, w := range result.Warnings {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", w.Level, w.Message)
		}
	}

	if !result.Valid {
		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}
