package nlperr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common cases
var (
	ErrModelLoad         = errors.New("model load failed")
	ErrUnknownEntityKind = errors.New("unknown entity kind")
	ErrPOSModelNotLoaded = errors.New("part-of-speech model not loaded")
	ErrInference         = errors.New("inference failed")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// LoadFailure describes one model that could not be loaded.
type LoadFailure struct {
	Name string
	Path string
	Err  error
}

func (f LoadFailure) Error() string {
	return fmt.Sprintf("could not load model %s with path [%s]: %v", f.Name, f.Path, f.Err)
}

func (f LoadFailure) Unwrap() error {
	return f.Err
}

// ModelLoadError is returned when start-up produced no usable model.
type ModelLoadError struct {
	Failures []LoadFailure
	Reason   string
}

func (e *ModelLoadError) Error() string {
	var b strings.Builder
	b.WriteString("no models loaded")
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	for _, f := range e.Failures {
		b.WriteString("; ")
		b.WriteString(f.Error())
	}
	return b.String()
}

func (e *ModelLoadError) Unwrap() error {
	return ErrModelLoad
}

// UnknownEntityKindError names the requested kind and the kinds that are loaded.
type UnknownEntityKindError struct {
	Kind  string
	Valid []string
}

func (e *UnknownEntityKindError) Error() string {
	return fmt.Sprintf("could not find entity kind [%s], possible values [%s]", e.Kind, strings.Join(e.Valid, ", "))
}

func (e *UnknownEntityKindError) Unwrap() error {
	return ErrUnknownEntityKind
}

// InferenceError wraps an unexpected failure while running a model.
type InferenceError struct {
	Kind  string
	Model string
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference for kind [%s] with model [%s]: %v", e.Kind, e.Model, e.Err)
}

// Is matches both ErrInference and the wrapped cause.
func (e *InferenceError) Is(target error) bool {
	return target == ErrInference
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}
