// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

// Package status defines the error taxonomy shared by every core
// component: scan/probe/parse failures are swallowed by callers, load
// failures are surfaced, and everything is a plain wrapped error so
// errors.Is/errors.As keep working the way the standard library expects.
package status

import "errors"

// Kind classifies a failure the way the firmware-facing EFI_STATUS codes
// would, without tying callers to a concrete firmware binding.
type Kind int

const (
	// NotFound means no such entry, path, or device exists.
	NotFound Kind = iota
	// Unsupported means a filesystem feature or protocol is absent.
	Unsupported
	// VolumeCorrupted means a magic mismatch or structural bound was violated.
	VolumeCorrupted
	// OutOfResources means an allocation failed or a table is full.
	OutOfResources
	// InvalidParameter means a kernel image is too small or malformed.
	InvalidParameter
	// LoadError means the hand-off failed after the point of no return.
	LoadError
	// Transient means a stale memory-map key; exactly one retry is permitted.
	Transient
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Unsupported:
		return "unsupported"
	case VolumeCorrupted:
		return "volume corrupted"
	case OutOfResources:
		return "out of resources"
	case InvalidParameter:
		return "invalid parameter"
	case LoadError:
		return "load error"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}

// Error pairs a Kind with the operation-specific detail.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.String()
	}
	return e.Op + ": " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error for op/kind, optionally wrapping a lower-level cause.
func New(op string, kind Kind, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
