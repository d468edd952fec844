package voice

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/ent0n29/coachvoice/internal/reliability"
)

type CaptureState string

const (
	CaptureIdle      CaptureState = "idle"
	CaptureListening CaptureState = "listening"
	CaptureErrored   CaptureState = "error"
)

type CaptureEventType string

const (
	CaptureEventStart       CaptureEventType = "start"
	CaptureEventResult      CaptureEventType = "result"
	CaptureEventError       CaptureEventType = "error"
	CaptureEventEnd         CaptureEventType = "end"
	CaptureEventStartFailed CaptureEventType = "start_failed"
)

// CaptureEvent is a platform callback for one capture session.
type CaptureEvent struct {
	SessionID  string
	Type       CaptureEventType
	Transcript string
	Code       string
}

// DefaultLanguageTag is the recognition language until SetLanguage is called.
const DefaultLanguageTag = "en-US"

const (
	startRetryDelay   = 1500 * time.Millisecond
	networkRetryDelay = time.Second
	maxNetworkRetries = 3
)

const (
	statusWaitAndRetry           = "Please wait a moment and try again"
	statusRecognitionUnavailable = "Speech recognition unavailable. Please refresh the page."
	statusGotIt                  = "Got it!"
	statusNetworkRetry           = "Network error - trying again..."
	statusNoSpeech               = "No speech detected. Please try again."
	statusAborted                = "Speech recognition aborted"
	statusMicDenied              = "Microphone access denied. Please allow microphone permissions."
)

// RecognitionSession is one activation-to-idle capture cycle.
type RecognitionSession struct {
	ID          string
	State       CaptureState
	LanguageTag string
	RetryCount  int
}

// Recognition drives the capture lifecycle and its retry policy.
type Recognition struct {
	platform  Recognizer
	scheduler Scheduler
	status    StatusSink
	logger    *zap.Logger
	newID     func() string

	supported    bool
	disabled     bool
	languageTag  string
	session      RecognitionSession
	retryCount   int
	startRetry   bool
	cancelRetry  func() bool
	onTranscript func(string)
	onError      func(error)
}

func NewRecognition(platform Recognizer, scheduler Scheduler, status StatusSink, supported bool, logger *zap.Logger) *Recognition {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recognition{
		platform:    platform,
		scheduler:   scheduler,
		status:      status,
		logger:      logger,
		newID:       uuid.NewString,
		supported:   supported && platform != nil,
		languageTag: DefaultLanguageTag,
		session:     RecognitionSession{State: CaptureIdle, LanguageTag: DefaultLanguageTag},
	}
}

// OnTranscript sets the handler for final transcripts.
func (r *Recognition) OnTranscript(fn func(string)) { r.onTranscript = fn }

// OnError sets an observer for capture failures.
func (r *Recognition) OnError(fn func(error)) { r.onError = fn }

func (r *Recognition) Supported() bool { return r.supported }

// Disabled reports whether a permission denial turned capture off for the session.
func (r *Recognition) Disabled() bool { return r.disabled }

// State reports Error while capture is disabled, otherwise the session state.
func (r *Recognition) State() CaptureState {
	if r.disabled && r.session.State == CaptureIdle {
		return CaptureErrored
	}
	return r.session.State
}

func (r *Recognition) Session() RecognitionSession {
	s := r.session
	s.State = r.State()
	s.RetryCount = r.retryCount
	return s
}

func (r *Recognition) Language() string { return r.languageTag }

// SetLanguage records tag for the next Activate. A running capture keeps its language.
func (r *Recognition) SetLanguage(tag string) (string, error) {
	normalized := strings.TrimSpace(strings.ReplaceAll(tag, "_", "-"))
	if normalized == "" {
		return "", fmt.Errorf("%w: empty tag", ErrInvalidLanguage)
	}
	parsed, err := language.Parse(normalized)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidLanguage, tag, err)
	}
	r.languageTag = parsed.String()
	return r.languageTag, nil
}

// Activate starts a new capture session.
func (r *Recognition) Activate() error {
	switch {
	case !r.supported:
		return ErrCaptureUnsupported
	case r.disabled:
		return ErrCaptureDisabled
	case r.session.State == CaptureListening:
		return ErrAlreadyListening
	}
	r.stopRetry()
	r.begin(false)
	return nil
}

// Stop ends the current capture. Results arriving later are dropped.
func (r *Recognition) Stop() {
	r.stopRetry()
	if r.session.State != CaptureListening {
		return
	}
	id := r.session.ID
	r.session.State = CaptureIdle
	r.platform.Stop(id)
}

// Toggle stops a running capture or activates a new one.
func (r *Recognition) Toggle() error {
	if r.session.State == CaptureListening {
		r.Stop()
		return nil
	}
	return r.Activate()
}

// Teardown stops capture and cancels pending retries.
func (r *Recognition) Teardown() {
	r.Stop()
	r.onTranscript = nil
}

func (r *Recognition) begin(startRetry bool) {
	r.startRetry = startRetry
	r.session = RecognitionSession{
		ID:          r.newID(),
		State:       CaptureListening,
		LanguageTag: r.languageTag,
	}
	r.logger.Debug("capture starting",
		zap.String("capture_id", r.session.ID),
		zap.String("lang", r.languageTag),
	)
	if err := r.platform.Start(r.session.ID, r.languageTag); err != nil {
		r.handleStartFailure(err)
	}
}

func (r *Recognition) handleStartFailure(cause error) {
	retried := r.startRetry
	r.startRetry = false
	r.session.State = CaptureIdle
	r.logger.Warn("capture start failed", zap.Bool("retry", retried), zap.Error(cause))
	r.reportError(cause)

	if retried {
		r.showStatus(statusRecognitionUnavailable, SeverityError)
		return
	}
	r.showStatus(statusWaitAndRetry, SeverityInfo)
	r.schedule(startRetryDelay, func() {
		if r.session.State != CaptureIdle || r.disabled {
			return
		}
		r.begin(true)
	})
}

// Dispatch applies a platform callback. Events for any other session are dropped.
func (r *Recognition) Dispatch(ev CaptureEvent) {
	if ev.SessionID == "" || ev.SessionID != r.session.ID || r.session.State != CaptureListening {
		r.logger.Debug("dropping stale capture event",
			zap.String("capture_id", ev.SessionID),
			zap.String("event", string(ev.Type)),
		)
		return
	}

	switch ev.Type {
	case CaptureEventStart:
		r.startRetry = false
		r.showStatus(fmt.Sprintf("Listening in %s...", LanguageName(r.session.LanguageTag)), SeverityInfo)
	case CaptureEventResult:
		r.retryCount = 0
		r.session.State = CaptureIdle
		r.showStatus(statusGotIt, SeveritySuccess)
		if transcript := strings.TrimSpace(ev.Transcript); transcript != "" && r.onTranscript != nil {
			r.onTranscript(transcript)
		}
	case CaptureEventError:
		r.handleError(ev.Code)
	case CaptureEventEnd:
		r.session.State = CaptureIdle
	case CaptureEventStartFailed:
		r.handleStartFailure(&CaptureError{
			SessionID: ev.SessionID,
			Code:      ev.Code,
			Kind:      reliability.ClassifyCaptureCode(ev.Code),
		})
	default:
		r.logger.Debug("unknown capture event", zap.String("event", string(ev.Type)))
	}
}

func (r *Recognition) handleError(code string) {
	err := &CaptureError{SessionID: r.session.ID, Code: code, Kind: reliability.ClassifyCaptureCode(code)}
	r.session.State = CaptureIdle
	r.logger.Info("capture error",
		zap.String("capture_id", err.SessionID),
		zap.String("class", string(reliability.ClassOf(err))),
		zap.Error(err),
	)
	r.reportError(err)

	switch err.Kind {
	case reliability.CaptureNetwork:
		if r.retryCount >= maxNetworkRetries {
			r.retryCount = 0
			r.showStatus(statusRecognitionUnavailable, SeverityError)
			return
		}
		r.retryCount++
		r.showStatus(statusNetworkRetry, SeverityInfo)
		r.schedule(networkRetryDelay, func() {
			if r.session.State != CaptureIdle || r.disabled {
				return
			}
			r.begin(false)
		})
	case reliability.CaptureNoSpeech:
		r.showStatus(statusNoSpeech, SeverityInfo)
	case reliability.CaptureAborted:
		r.showStatus(statusAborted, SeverityInfo)
	case reliability.CapturePermissionDenied:
		r.disabled = true
		r.stopRetry()
		r.showStatus(statusMicDenied, SeverityError)
	default:
		r.showStatus("Error: "+code, SeverityError)
	}
}

func (r *Recognition) schedule(d time.Duration, fn func()) {
	r.stopRetry()
	if r.scheduler == nil {
		return
	}
	r.cancelRetry = r.scheduler.AfterFunc(d, fn)
}

func (r *Recognition) stopRetry() {
	if r.cancelRetry != nil {
		r.cancelRetry()
		r.cancelRetry = nil
	}
}

func (r *Recognition) reportError(err error) {
	if r.onError != nil {
		r.onError(err)
	}
}

func (r *Recognition) showStatus(msg string, sev Severity) {
	if r.status != nil {
		r.status.ShowStatus(msg, sev)
	}
}

// LanguageName is the display name used in capture status messages.
func LanguageName(tag string) string {
	switch LanguageFamily(tag) {
	case "hi":
		return "Hindi"
	case "mr":
		return "Marathi"
	default:
		return "English"
	}
}
