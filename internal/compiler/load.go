package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"github.com/samber/lo"

	"github.com/roach88/mealy/internal/ir"
)

// LoadModels compiles every model under the "model" field of a CUE file, or
// of all .cue files in a directory unified as one instance.
func LoadModels(path string) (map[string]*ir.ModelSpec, error) {
	dir, files, err := cueFiles(path)
	if err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	instances := load.Instances(files, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("%s: no CUE instances loaded", path)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", formatCUEError(inst.Err))
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	modelsVal := value.LookupPath(cue.ParsePath("model"))
	if !modelsVal.Exists() {
		return nil, &CompileError{Field: "model", Message: fmt.Sprintf("no models defined in %s", path)}
	}
	iter, err := modelsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	models := make(map[string]*ir.ModelSpec)
	for iter.Next() {
		spec, err := CompileModel(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", labelOf(iter.Value()), err)
		}
		models[spec.Name] = spec
	}
	if len(models) == 0 {
		return nil, &CompileError{Field: "model", Message: fmt.Sprintf("no models defined in %s", path)}
	}
	return models, nil
}

// LoadModel loads the named model from path. An empty name selects the
// only model in the file.
func LoadModel(path, name string) (*ir.ModelSpec, error) {
	models, err := LoadModels(path)
	if err != nil {
		return nil, err
	}
	if name != "" {
		spec, ok := models[name]
		if !ok {
			return nil, fmt.Errorf("model %q not found in %s (have %s)", name, path, strings.Join(ModelNames(models), ", "))
		}
		return spec, nil
	}
	if len(models) > 1 {
		return nil, fmt.Errorf("%s defines %d models, choose one of %s", path, len(models), strings.Join(ModelNames(models), ", "))
	}
	for _, spec := range models {
		return spec, nil
	}
	return nil, fmt.Errorf("no models defined in %s", path)
}

// ModelNames returns the model names in sorted order.
func ModelNames(models map[string]*ir.ModelSpec) []string {
	names := lo.Keys(models)
	slices.Sort(names)
	return names
}

// cueFiles resolves path to a load directory and the file names in it.
func cueFiles(path string) (string, []string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, fmt.Errorf("model path: %w", err)
	}
	if !info.IsDir() {
		if filepath.Ext(path) != ".cue" {
			return "", nil, fmt.Errorf("%s: not a .cue file", path)
		}
		return filepath.Dir(path), []string{filepath.Base(path)}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return "", nil, fmt.Errorf("no CUE files found in %s", path)
	}
	return path, files, nil
}
