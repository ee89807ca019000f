package cli

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue/token"

	"github.com/roach88/mheg/internal/carousel"
	"github.com/roach88/mheg/internal/compiler"
	"github.com/roach88/mheg/internal/ir"
)

// LoadMode controls how errors are handled during carousel loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the groups decoded from a carousel directory.
type LoadResult struct {
	Dir       *carousel.Dir
	Groups    []*ir.Group
	FileCount int // Number of group files found
}

// LoadError represents an error that occurred while loading a carousel.
type LoadError struct {
	Code    string
	Message string
	Group   ir.GroupID
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Group != "" {
		return fmt.Sprintf("%s: %s: %s", e.Group, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadCarousel decodes every group file below dir.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
//
// A nil result means the carousel itself could not be opened.
func LoadCarousel(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("carousel directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing carousel directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cd, err := carousel.NewDir(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: err.Error()}}
	}
	ids, err := cd.Groups()
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(ids) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no %s files found in %s", carousel.GroupExt, dir)}}
	}

	result := &LoadResult{Dir: cd, FileCount: len(ids)}
	decoder := compiler.NewDecoder()

	var errs []error
	for _, id := range ids {
		data, err := cd.LoadFile(string(id))
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error(), Group: id})
		} else if g, err := decoder.Decode(id, data); err != nil {
			errs = append(errs, convertCompileError(err, id))
		} else {
			result.Groups = append(result.Groups, g)
			continue
		}
		if mode == LoadModeFailFast {
			return result, errs
		}
	}
	return result, errs
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, id ir.GroupID) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeBuildFailed,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Group:   id,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeBuildFailed,
		Message: err.Error(),
		Group:   id,
	}
}

// Error code constants - unified across all CLI commands. Validation codes
// (E1xx) come from the compiler package.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No group files found
	ErrCodeLoadFailed  = "E004" // Group file could not be read
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // Group file did not compile
	ErrCodeStoreFailed = "E007" // Database open or query failed
	ErrCodeTestFailed  = "E008" // One or more scenarios failed
)
