package cli

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue/token"

	"github.com/roach88/mealy/internal/actors"
	"github.com/roach88/mealy/internal/compiler"
	"github.com/roach88/mealy/internal/ir"
	"github.com/roach88/mealy/internal/model"
)

// Error code constants - unified across all CLI commands.
// Model validation codes (E200-E209) come from the compiler package.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeCompile      = "E006" // CUE load or compile failed
	ErrCodeStore        = "E007" // Database open/read/write error
	ErrCodeInvalidModel = "E010" // Model failed validation
	ErrCodeBuild        = "E011" // Validated model could not be built
	ErrCodeCheck        = "E020" // Checker aborted (configuration or engine error)
	ErrCodeProperty     = "E021" // A property did not reach its expected verdict
	ErrCodeReplay       = "E030" // Stored discovery does not replay
	ErrCodeTestFailed   = "E040" // One or more scenarios failed
)

// LoadError represents an error that occurred while loading a model.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos                  // CUE position if available
	Errors  []compiler.ValidationError // set for ErrCodeInvalidModel
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// loadModels compiles every model at path without validating them.
func loadModels(path string) (map[string]*ir.ModelSpec, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("model path not found: %s", path)}
	}
	models, err := compiler.LoadModels(path)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return models, nil
}

// loadModel compiles, validates and builds one model.
func loadModel(path, name string) (*ir.ModelSpec, *model.Model, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("model path not found: %s", path)}
	}
	spec, err := compiler.LoadModel(path, name)
	if err != nil {
		return nil, nil, convertCompileError(err)
	}
	if verrs := compiler.Validate(spec); len(verrs) > 0 {
		return nil, nil, &LoadError{
			Code:    ErrCodeInvalidModel,
			Message: fmt.Sprintf("model %s is invalid: %s", spec.Name, verrs[0].Error()),
			Errors:  verrs,
		}
	}
	m, err := actors.Build(spec)
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeBuild, Message: fmt.Sprintf("build %s: %v", spec.Name, err)}
	}
	return spec, m, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeCompile,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeCompile, Message: err.Error()}
}

// loadExitError maps a load failure to its exit code: an invalid model is
// a validation failure, anything else is a command error.
func loadExitError(f *OutputFormatter, err error) error {
	var le *LoadError
	if !errors.As(err, &le) {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load model", err)
	}
	var details any
	if len(le.Errors) > 0 {
		details = le.Errors
	}
	_ = f.Error(le.Code, le.Message, details)
	if le.Code == ErrCodeInvalidModel {
		return WrapExitError(ExitFailure, "invalid model", err)
	}
	return WrapExitError(ExitCommandError, "load model", err)
}
