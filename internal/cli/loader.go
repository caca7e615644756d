package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/recordkit/internal/compiler"
	"github.com/roach88/recordkit/internal/pipeline"
)

// LoadMode controls how errors are handled during pipeline loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the pipelines compiled from a directory.
type LoadResult struct {
	Pipelines []pipeline.Spec
	FileCount int
}

// Find returns the pipeline called name.
func (r *LoadResult) Find(name string) (pipeline.Spec, bool) {
	for _, p := range r.Pipelines {
		if p.Name == name {
			return p, true
		}
	}
	return pipeline.Spec{}, false
}

// LoadError represents an error that occurred during loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadPipelines loads the CUE package in dir and compiles every field of
// its top-level `pipeline` struct.
// If mode is LoadModeFailFast, returns on the first compile error.
func LoadPipelines(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("pipelines directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing pipelines directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{FileCount: len(cueFiles)}
	var errs []error

	pipelines := value.LookupPath(cue.ParsePath("pipeline"))
	if !pipelines.Exists() {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: "no pipeline struct found"}}
	}

	iter, err := pipelines.Fields()
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating pipelines: %v", err)}}
	}
	for iter.Next() {
		spec, err := compiler.CompilePipeline(iter.Value())
		if err != nil {
			errs = append(errs, convertCompileError(err, "pipeline."+iter.Selector().String()))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Pipelines = append(result.Pipelines, *spec)
	}

	if len(result.Pipelines) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no pipelines found"})
	}
	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeCompile,
			Message: fmt.Sprintf("%s.%s: %s", context, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeCompile,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// loadOne loads dir and returns the named pipeline. An empty name is
// allowed when the directory defines exactly one pipeline.
func loadOne(dir, name string) (pipeline.Spec, error) {
	result, errs := LoadPipelines(dir, LoadModeFailFast)
	if len(errs) > 0 {
		return pipeline.Spec{}, errs[0]
	}
	if name == "" {
		if len(result.Pipelines) != 1 {
			return pipeline.Spec{}, &LoadError{
				Code:    ErrCodeGeneric,
				Message: fmt.Sprintf("%d pipelines defined, choose one with --pipeline", len(result.Pipelines)),
			}
		}
		return result.Pipelines[0], nil
	}
	spec, ok := result.Find(name)
	if !ok {
		return pipeline.Spec{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("pipeline %q not found", name)}
	}
	return spec, nil
}

// loadErrorCode extracts the code from a LoadError, defaulting to E001.
func loadErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}
