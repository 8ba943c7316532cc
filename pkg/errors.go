package gainhists

import (
	"errors"
	"fmt"
)

var (
	ErrInputNotFound         = errors.New("input not found")
	ErrSchemaMissing         = errors.New("required event schema missing")
	ErrInvalidLayerSelection = errors.New("invalid layer selection")
	ErrUnknownKey            = errors.New("unknown accumulator key")
	ErrOutputAlreadyExists   = errors.New("output already exists")
	ErrAlreadyAllocated      = errors.New("registry already allocated")
	ErrRegistryTooLarge      = errors.New("registry exceeds memory limit")
	ErrCorruptEvent          = errors.New("corrupt event")
	ErrInvalidConfig         = errors.New("invalid configuration")
)

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error {
	return e.Err
}

// ErrCreateTable represents an error when creating a table or dataset.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error {
	return e.Err
}

// SchemaError reports a table, tree or branch the input does not provide.
type SchemaError struct {
	Source string
	Object string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: missing %q: %v", e.Source, e.Object, e.Err)
	}
	return fmt.Sprintf("%s: missing %q", e.Source, e.Object)
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaMissing
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// LayerSelectionError is returned when the requested layer is outside the
// layers present in the input.
type LayerSelectionError struct {
	Layer int
	Range Range
}

func (e *LayerSelectionError) Error() string {
	if e.Range.Empty() {
		return fmt.Sprintf("layer %d requested but input has no layers", e.Layer)
	}
	return fmt.Sprintf("layer %d outside resolved layer range [%d, %d]", e.Layer, e.Range.Min, e.Range.Max)
}

func (e *LayerSelectionError) Is(target error) bool {
	return target == ErrInvalidLayerSelection
}

// UnknownKeyError is returned by Registry.Fill for keys outside the
// allocated coordinate space.
type UnknownKeyError struct {
	Key Key
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("key (layer %d, chip %d, chan %d, sca %d) not allocated",
		e.Key.Layer, e.Key.Chip, e.Key.Channel, e.Key.Cell)
}

func (e *UnknownKeyError) Is(target error) bool {
	return target == ErrUnknownKey
}

// OutputExistsError is returned when the output path is already taken.
type OutputExistsError struct {
	Filename string
}

func (e *OutputExistsError) Error() string {
	return fmt.Sprintf("output file %q already exists", e.Filename)
}

func (e *OutputExistsError) Is(target error) bool {
	return target == ErrOutputAlreadyExists
}

// CorruptEventError reports an event whose declared hit count disagrees
// with the hits stored for it.
type CorruptEventError struct {
	EventID  int64
	Declared int
	Found    int
}

func (e *CorruptEventError) Error() string {
	return fmt.Sprintf("event %d declares %d hits, found %d", e.EventID, e.Declared, e.Found)
}

func (e *CorruptEventError) Is(target error) bool {
	return target == ErrCorruptEvent
}
