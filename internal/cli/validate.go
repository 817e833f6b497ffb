package cli

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/roach88/mealy/internal/actors"
	"github.com/roach88/mealy/internal/compiler"
	"github.com/roach88/mealy/internal/ir"
)

// ModelValidation holds the validation result for one model.
type ModelValidation struct {
	Name   string                     `json:"name"`
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// ValidationResult holds validation results for every model at a path.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Models []ModelValidation `json:"models"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate models without exploring them",
		Long: `Compile and validate every model in a CUE file or directory.

Checks actor kinds and parameters, addresses, initial messages, property
expectations and conditions. All errors are reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout())

	models, err := loadModels(path)
	if err != nil {
		return loadExitError(f, err)
	}

	result := ValidateModels(models)

	if f.JSON() {
		if result.Valid {
			return f.Success(result)
		}
		_ = f.Failure(firstValidationCode(result), "validation failed", result)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d model(s)", countInvalid(result)))
	}

	for _, mv := range result.Models {
		if mv.Valid {
			fmt.Fprintf(f.Writer, "✓ %s\n", mv.Name)
			continue
		}
		fmt.Fprintf(f.Writer, "✗ %s\n", mv.Name)
		for _, e := range mv.Errors {
			fmt.Fprintf(f.Writer, "  %s: %s: %s\n", e.Code, e.Field, e.Message)
		}
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d model(s)", countInvalid(result)))
	}
	fmt.Fprintln(f.Writer, "✓ All models valid")
	return nil
}

// ValidateModels validates compiled models in name order. A model that
// validates but cannot be built is reported with a generic error.
func ValidateModels(models map[string]*ir.ModelSpec) ValidationResult {
	result := ValidationResult{Valid: true}
	for _, name := range compiler.ModelNames(models) {
		spec := models[name]
		mv := ModelValidation{Name: name, Errors: compiler.Validate(spec)}
		if len(mv.Errors) == 0 {
			if _, err := actors.Build(spec); err != nil {
				mv.Errors = append(mv.Errors, compiler.ValidationError{
					Field:   "model",
					Message: err.Error(),
					Code:    ErrCodeBuild,
				})
			}
		}
		mv.Valid = len(mv.Errors) == 0
		if !mv.Valid {
			result.Valid = false
		}
		result.Models = append(result.Models, mv)
	}
	return result
}

// ValidatePath loads and validates every model at path.
// This is a helper function for external callers.
func ValidatePath(path string) (ValidationResult, error) {
	models, err := loadModels(path)
	if err != nil {
		return ValidationResult{}, err
	}
	return ValidateModels(models), nil
}

func firstValidationCode(r ValidationResult) string {
	for _, mv := range r.Models {
		if len(mv.Errors) > 0 {
			return mv.Errors[0].Code
		}
	}
	return ErrCodeInvalidModel
}

func countInvalid(r ValidationResult) int {
	return lo.CountBy(r.Models, func(mv ModelValidation) bool { return !mv.Valid })
}
