package reliability

import (
	"errors"
	"strings"
)

// Class is the error taxonomy shared by capture, synthesis and dispatch.
type Class string

const (
	ClassTransientCapture Class = "transient_capture"
	ClassFatalCapture     Class = "fatal_capture"
	ClassSynthesis        Class = "synthesis"
	ClassDispatch         Class = "dispatch"
	ClassUnknown          Class = "unknown"
)

// Classed is implemented by errors that know their taxonomy class.
type Classed interface {
	ErrorClass() Class
}

// ClassOf returns the taxonomy class of err, or "" for a nil error.
func ClassOf(err error) Class {
	if err == nil {
		return ""
	}
	var c Classed
	if errors.As(err, &c) {
		return c.ErrorClass()
	}
	return ClassUnknown
}

// CaptureErrorKind is a normalized recognition error code.
type CaptureErrorKind string

const (
	CaptureNetwork          CaptureErrorKind = "network"
	CaptureNoSpeech         CaptureErrorKind = "no-speech"
	CaptureAborted          CaptureErrorKind = "aborted"
	CapturePermissionDenied CaptureErrorKind = "not-allowed"
	CaptureOther            CaptureErrorKind = "other"
)

// ClassifyCaptureCode maps a platform recognition error code to a kind.
func ClassifyCaptureCode(code string) CaptureErrorKind {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "network":
		return CaptureNetwork
	case "no-speech":
		return CaptureNoSpeech
	case "aborted":
		return CaptureAborted
	case "not-allowed", "service-not-allowed":
		return CapturePermissionDenied
	default:
		return CaptureOther
	}
}

// Class reports whether the kind leaves capture usable.
func (k CaptureErrorKind) Class() Class {
	if k == CapturePermissionDenied {
		return ClassFatalCapture
	}
	return ClassTransientCapture
}

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
