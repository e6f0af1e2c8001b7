package errors

import (
	"fmt"
)

// Stage identifies the pipeline stage that produced an error.
type Stage string

const (
	StageLoad    Stage = "load"
	StageMerge   Stage = "merge"
	StageClean   Stage = "clean"
	StageCompute Stage = "compute"
	StageRank    Stage = "rank"
)

// Error codes for the pipeline error taxonomy
const (
	CodeLoadFailed       = "LOAD_FAILED"
	CodeDuplicateKey     = "DUPLICATE_KEY"
	CodeComputationError = "COMPUTATION_FAILED"
	CodeInsufficientData = "INSUFFICIENT_DATA"
)

// LoadError indicates a required source table is missing or malformed.
type LoadError struct {
	Table  string // logical table name, e.g. "sfa_p1"
	Path   string // file path that was read
	Reason string
	Err    error
}

// Error implements the error interface
func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s (%s): %s: %v", e.Table, e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("load %s (%s): %s", e.Table, e.Path, e.Reason)
}

// Unwrap returns the underlying cause
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Code returns the stable error code
func (e *LoadError) Code() string {
	return CodeLoadFailed
}

// Stage returns the pipeline stage
func (e *LoadError) Stage() Stage {
	return StageLoad
}

// NewLoadError creates a load error for a table file
func NewLoadError(table, path, reason string, err error) *LoadError {
	return &LoadError{Table: table, Path: path, Reason: reason, Err: err}
}

// DuplicateKeyError indicates an institution identifier appeared more than
// once within a single source table. The merger refuses to pick one.
type DuplicateKeyError struct {
	Table  string
	UnitID int
}

// Error implements the error interface
func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate UNITID %d in table %s", e.UnitID, e.Table)
}

// Code returns the stable error code
func (e *DuplicateKeyError) Code() string {
	return CodeDuplicateKey
}

// Stage returns the pipeline stage
func (e *DuplicateKeyError) Stage() Stage {
	return StageMerge
}

// NewDuplicateKeyError creates a duplicate join-key error
func NewDuplicateKeyError(table string, unitID int) *DuplicateKeyError {
	return &DuplicateKeyError{Table: table, UnitID: unitID}
}

// ComputationError indicates the metric engine received a non-numeric or
// out-of-range input for an institution.
type ComputationError struct {
	UnitID int
	Field  string
	Reason string
}

// Error implements the error interface
func (e *ComputationError) Error() string {
	return fmt.Sprintf("compute score for UNITID %d: field %s: %s", e.UnitID, e.Field, e.Reason)
}

// Code returns the stable error code
func (e *ComputationError) Code() string {
	return CodeComputationError
}

// Stage returns the pipeline stage
func (e *ComputationError) Stage() Stage {
	return StageCompute
}

// NewComputationError creates a metric computation error
func NewComputationError(unitID int, field, reason string) *ComputationError {
	return &ComputationError{UnitID: unitID, Field: field, Reason: reason}
}

// InsufficientDataError indicates fewer institutions survived cleaning than
// the requested top-N. The ranker reports produced vs requested; the caller
// decides whether to proceed with fewer or abort.
type InsufficientDataError struct {
	Requested int
	Produced  int
}

// Error implements the error interface
func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("ranked %d institutions, %d requested", e.Produced, e.Requested)
}

// Code returns the stable error code
func (e *InsufficientDataError) Code() string {
	return CodeInsufficientData
}

// Stage returns the pipeline stage
func (e *InsufficientDataError) Stage() Stage {
	return StageRank
}

// NewInsufficientDataError creates an insufficient data error
func NewInsufficientDataError(requested, produced int) *InsufficientDataError {
	return &InsufficientDataError{Requested: requested, Produced: produced}
}

// coded is implemented by every error in the taxonomy
type coded interface {
	Code() string
	Stage() Stage
}

// CodeOf returns the stable code for a pipeline error, or "" for other errors
func CodeOf(err error) string {
	if c, ok := err.(coded); ok {
		return c.Code()
	}
	return ""
}

// StageOf returns the pipeline stage for a pipeline error, or "" for other errors
func StageOf(err error) Stage {
	if c, ok := err.(coded); ok {
		return c.Stage()
	}
	return ""
}
