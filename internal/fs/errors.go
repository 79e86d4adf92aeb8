// Package fs implements the gitfs path-resolution engine and the FUSE
// nodes that expose it.
//
// This file contains error types and error handling utilities.
package fs

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"gitfs/internal/logging"
)

var (
	errLogger = logging.GetLogger().WithPrefix("error")

	// ErrNotFound indicates a path that resolves to neither a namespace
	// node nor a snapshot entry
	ErrNotFound = errors.New("path not found")

	// ErrAccessDenied indicates an open with write intent on the
	// read-only filesystem
	ErrAccessDenied = errors.New("access denied")

	// ErrAmbiguousRef indicates a path claimed by more than one reference
	ErrAmbiguousRef = errors.New("ambiguous reference ownership")

	// ErrNotARepository indicates the given location holds no git
	// repository; surfaced at startup only
	ErrNotARepository = errors.New("not a git repository")
)

// Error wraps engine errors with the operation and affected path.
type Error struct {
	Op   string // Operation that failed (e.g., "getattr", "readdir")
	Path string // Affected path
	Err  error  // Underlying error
}

// Error implements the error interface, providing a formatted error message
func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("operation %s on %s failed: %v", e.Op, e.Path, e.Err)
}

// Unwrap implements error unwrapping for the errors.Is/As functions
func (e *Error) Unwrap() error {
	return e.Err
}

// ToFuseError converts an engine error to the appropriate FUSE errno.
// Ambiguous ownership deliberately maps to ENOENT: the path has no
// well-defined owner, so to a caller it does not exist.
func ToFuseError(err error) error {
	if err == nil {
		return nil
	}

	errLogger.Trace("Converting engine error to FUSE error: %v", err)
	switch {
	case errors.Is(err, ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, ErrAmbiguousRef):
		return syscall.ENOENT
	case errors.Is(err, ErrAccessDenied):
		return syscall.EACCES
	case errors.Is(err, os.ErrNotExist):
		return syscall.ENOENT
	case errors.Is(err, os.ErrPermission):
		return syscall.EACCES
	default:
		errLogger.Debug("Unknown error type, returning EIO: %v", err)
		return syscall.EIO
	}
}

// NewError creates a new Error with the given operation, path, and underlying error
func NewError(op string, path string, err error) *Error {
	engineErr := &Error{
		Op:   op,
		Path: path,
		Err:  err,
	}
	errLogger.Debug("Created new engine error: %v", engineErr)
	return engineErr
}

// Common operation names for consistent logging and error reporting
const (
	OpGetattr = "getattr" // Getting node attributes
	OpReadDir = "readdir" // Reading directory contents
	OpOpen    = "open"    // Opening a file
	OpRead    = "read"    // Reading from a file
	OpLookup  = "lookup"  // Looking up a path
)
