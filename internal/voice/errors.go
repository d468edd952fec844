package voice

import (
	"errors"
	"fmt"

	"github.com/ent0n29/coachvoice/internal/reliability"
)

var (
	ErrEmptyUtterance       = errors.New("nothing to speak after sanitizing")
	ErrSynthesisBusy        = errors.New("another utterance is in progress")
	ErrSynthesisUnsupported = errors.New("speech synthesis is not supported on this platform")
	ErrVoiceNotFound        = errors.New("requested voice not found")

	ErrAlreadyListening   = errors.New("capture already listening; call Stop instead")
	ErrCaptureDisabled    = errors.New("capture disabled for this session")
	ErrCaptureUnsupported = errors.New("speech recognition is not supported on this platform")
	ErrInvalidLanguage    = errors.New("invalid language tag")

	ErrEmptyMessage     = errors.New("empty message")
	ErrDispatchInFlight = errors.New("a message is already being sent")
	ErrSessionClosed    = errors.New("voice session closed")
)

// SynthesisError is a platform failure while speaking one utterance.
type SynthesisError struct {
	UtteranceID string
	Code        string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed for utterance %s: %s", e.UtteranceID, e.Code)
}

func (e *SynthesisError) ErrorClass() reliability.Class { return reliability.ClassSynthesis }

// CaptureError is a platform failure reported for one capture session.
type CaptureError struct {
	SessionID string
	Code      string
	Kind      reliability.CaptureErrorKind
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture session %s failed: %s", e.SessionID, e.Code)
}

func (e *CaptureError) ErrorClass() reliability.Class { return e.Kind.Class() }
