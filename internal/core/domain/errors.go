// internal/core/domain/errors.go
package domain

import (
	"context"
	"errors"
)

// Errores de dominio comunes.
var (
	// Target errors
	ErrEmptyTarget = errors.New("target cannot be empty")

	// Collector errors
	ErrUnknownCollector  = errors.New("unknown collector")
	ErrMissingCredential = errors.New("missing credential")
	ErrCollectorTimeout  = errors.New("timeout")
	ErrCollectorFault    = errors.New("collector fault")
	ErrCollectorCanceled = errors.New("canceled")

	// Workflow errors
	ErrInvalidWorkflow = errors.New("invalid workflow")
	ErrUnknownWorkflow = errors.New("unknown workflow")

	// Configuration errors
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrConfigLoadFailed = errors.New("failed to load configuration")

	// Storage / export errors
	ErrRunNotFound       = errors.New("run not found")
	ErrExportFailed      = errors.New("export failed")
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrInvalidOutputPath = errors.New("invalid output path")
)

// ClassifyError traduce un error de colector a su ErrorKind.
// Cualquier error no reconocido se considera un fallo interno del colector.
func ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindNone
	case errors.Is(err, ErrUnknownCollector):
		return ErrorKindUnknownCollector
	case errors.Is(err, ErrMissingCredential):
		return ErrorKindMissingCredential
	case errors.Is(err, ErrCollectorTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorKindTimeout
	case errors.Is(err, ErrCollectorCanceled), errors.Is(err, context.Canceled):
		return ErrorKindCanceled
	default:
		return ErrorKindFault
	}
}
