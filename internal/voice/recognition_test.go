package voice

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ent0n29/coachvoice/internal/reliability"
)

type recognitionFixture struct {
	r           *Recognition
	platform    *MockPlatform
	sched       *manualScheduler
	status      *statusRecorder
	transcripts []string
}

func newRecognitionFixture(t *testing.T) *recognitionFixture {
	t.Helper()
	f := &recognitionFixture{
		platform: NewMockPlatform(),
		sched:    &manualScheduler{},
		status:   &statusRecorder{},
	}
	f.r = NewRecognition(f.platform, f.sched, f.status, true, zaptest.NewLogger(t))
	f.r.OnTranscript(func(s string) { f.transcripts = append(f.transcripts, s) })
	return f
}

func (f *recognitionFixture) activate(t *testing.T) string {
	t.Helper()
	if err := f.r.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if f.r.State() != CaptureListening {
		t.Fatalf("state after Activate = %s, want listening", f.r.State())
	}
	return f.r.Session().ID
}

func (f *recognitionFixture) fail(id, code string) {
	f.r.Dispatch(CaptureEvent{SessionID: id, Type: CaptureEventError, Code: code})
}

func TestRecognitionResult(t *testing.T) {
	f := newRecognitionFixture(t)
	id := f.activate(t)

	f.r.Dispatch(CaptureEvent{SessionID: id, Type: CaptureEventStart})
	if got := f.status.last(); got.msg != "Listening in English..." || got.sev != SeverityInfo {
		t.Fatalf("status = %+v", got)
	}

	f.r.Dispatch(CaptureEvent{SessionID: id, Type: CaptureEventResult, Transcript: " how many squats "})
	if f.r.State() != CaptureIdle {
		t.Fatalf("state = %s, want idle", f.r.State())
	}
	if got := f.status.last(); got.msg != "Got it!" || got.sev != SeveritySuccess {
		t.Fatalf("status = %+v", got)
	}
	if len(f.transcripts) != 1 || f.transcripts[0] != "how many squats" {
		t.Fatalf("transcripts = %q", f.transcripts)
	}

	// The platform's trailing end for a finished session is ignored.
	f.r.Dispatch(CaptureEvent{SessionID: id, Type: CaptureEventEnd})
	if f.r.State() != CaptureIdle {
		t.Fatalf("state = %s after trailing end", f.r.State())
	}
}

func TestRecognitionNetworkErrorRetriesAutomatically(t *testing.T) {
	f := newRecognitionFixture(t)
	first := f.activate(t)

	f.fail(first, "network")
	if f.r.State() != CaptureIdle {
		t.Fatalf("state = %s, want idle", f.r.State())
	}
	if got := f.status.last(); got.msg != "Network error - trying again..." || got.sev != SeverityInfo {
		t.Fatalf("status = %+v", got)
	}

	f.sched.Advance(999 * time.Millisecond)
	if f.r.State() != CaptureIdle {
		t.Fatalf("retried before the delay elapsed")
	}
	f.sched.Advance(time.Millisecond)
	if f.r.State() != CaptureListening {
		t.Fatalf("state = %s after retry delay, want listening", f.r.State())
	}
	if f.r.Session().ID == first {
		t.Fatalf("retry reused session %q", first)
	}
	if n := len(f.platform.Calls("start")); n != 2 {
		t.Fatalf("platform starts = %d, want 2", n)
	}
	if f.r.Session().RetryCount != 1 {
		t.Fatalf("retry count = %d, want 1", f.r.Session().RetryCount)
	}
}

func TestRecognitionNetworkRetriesAreCapped(t *testing.T) {
	f := newRecognitionFixture(t)
	f.activate(t)

	for i := 0; i < maxNetworkRetries; i++ {
		f.fail(f.r.Session().ID, "network")
		f.sched.Advance(networkRetryDelay)
		if f.r.State() != CaptureListening {
			t.Fatalf("retry %d did not restart capture", i+1)
		}
	}

	f.fail(f.r.Session().ID, "network")
	if got := f.status.last(); got.msg != "Speech recognition unavailable. Please refresh the page." || got.sev != SeverityError {
		t.Fatalf("status = %+v", got)
	}
	f.sched.Advance(time.Minute)
	if f.r.State() != CaptureIdle {
		t.Fatalf("state = %s, want idle once retries are exhausted", f.r.State())
	}
}

func TestRecognitionResultResetsRetryCount(t *testing.T) {
	f := newRecognitionFixture(t)
	f.activate(t)
	f.fail(f.r.Session().ID, "network")
	f.sched.Advance(networkRetryDelay)

	f.r.Dispatch(CaptureEvent{SessionID: f.r.Session().ID, Type: CaptureEventResult, Transcript: "ok"})
	if f.r.Session().RetryCount != 0 {
		t.Fatalf("retry count = %d after result, want 0", f.r.Session().RetryCount)
	}
}

func TestRecognitionPermissionDeniedDisablesCapture(t *testing.T) {
	for _, code := range []string{"not-allowed", "service-not-allowed"} {
		code := code
		t.Run(code, func(t *testing.T) {
			f := newRecognitionFixture(t)
			var classes []reliability.Class
			f.r.OnError(func(err error) { classes = append(classes, reliability.ClassOf(err)) })
			id := f.activate(t)

			f.fail(id, code)
			if got := f.status.last(); got.msg != "Microphone access denied. Please allow microphone permissions." || got.sev != SeverityError {
				t.Fatalf("status = %+v", got)
			}
			if f.r.State() != CaptureErrored || !f.r.Disabled() {
				t.Fatalf("state = %s, disabled = %v", f.r.State(), f.r.Disabled())
			}
			for i := 0; i < 2; i++ {
				if err := f.r.Activate(); !errors.Is(err, ErrCaptureDisabled) {
					t.Fatalf("Activate after denial error = %v, want ErrCaptureDisabled", err)
				}
			}
			if len(classes) != 1 || classes[0] != reliability.ClassFatalCapture {
				t.Fatalf("error classes = %v", classes)
			}
			if f.sched.Pending() != 0 {
				t.Fatalf("retry scheduled after denial")
			}
		})
	}
}

func TestRecognitionErrorStatuses(t *testing.T) {
	cases := []struct {
		code string
		msg  string
		sev  Severity
	}{
		{"no-speech", "No speech detected. Please try again.", SeverityInfo},
		{"aborted", "Speech recognition aborted", SeverityInfo},
		{"audio-capture", "Error: audio-capture", SeverityError},
	}
	for _, tc := range cases {
		f := newRecognitionFixture(t)
		id := f.activate(t)
		f.fail(id, tc.code)

		if got := f.status.last(); got.msg != tc.msg || got.sev != tc.sev {
			t.Fatalf("%s: status = %+v, want %q/%s", tc.code, got, tc.msg, tc.sev)
		}
		if f.r.State() != CaptureIdle || f.sched.Pending() != 0 {
			t.Fatalf("%s: state %s, pending %d", tc.code, f.r.State(), f.sched.Pending())
		}
		if err := f.r.Activate(); err != nil {
			t.Fatalf("%s: Activate after transient error: %v", tc.code, err)
		}
	}
}

func TestRecognitionSynchronousStartFailure(t *testing.T) {
	f := newRecognitionFixture(t)
	f.platform.FailStarts(errors.New("InvalidStateError"))

	if err := f.r.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if f.r.State() != CaptureIdle {
		t.Fatalf("state = %s, want idle after failed start", f.r.State())
	}
	if got := f.status.last(); got.msg != "Please wait a moment and try again" || got.sev != SeverityInfo {
		t.Fatalf("status = %+v", got)
	}

	f.sched.Advance(startRetryDelay)
	if f.r.State() != CaptureListening {
		t.Fatalf("state = %s after start retry, want listening", f.r.State())
	}
}

func TestRecognitionSecondStartFailureGivesUp(t *testing.T) {
	f := newRecognitionFixture(t)
	f.platform.FailStarts(errors.New("busy"), errors.New("still busy"))

	_ = f.r.Activate()
	f.sched.Advance(startRetryDelay)

	if got := f.status.last(); got.msg != "Speech recognition unavailable. Please refresh the page." || got.sev != SeverityError {
		t.Fatalf("status = %+v", got)
	}
	if f.r.State() != CaptureIdle || f.sched.Pending() != 0 {
		t.Fatalf("state %s, pending %d", f.r.State(), f.sched.Pending())
	}
}

func TestRecognitionAsyncStartFailure(t *testing.T) {
	f := newRecognitionFixture(t)
	id := f.activate(t)

	f.r.Dispatch(CaptureEvent{SessionID: id, Type: CaptureEventStartFailed, Code: "busy"})
	if got := f.status.last(); got.msg != "Please wait a moment and try again" {
		t.Fatalf("status = %+v", got)
	}
	f.sched.Advance(startRetryDelay)
	retry := f.r.Session().ID
	if f.r.State() != CaptureListening || retry == id {
		t.Fatalf("no start retry, state %s", f.r.State())
	}

	f.r.Dispatch(CaptureEvent{SessionID: retry, Type: CaptureEventStartFailed, Code: "busy"})
	if got := f.status.last(); got.msg != "Speech recognition unavailable. Please refresh the page." {
		t.Fatalf("status = %+v", got)
	}
}

func TestRecognitionDropsStaleEvents(t *testing.T) {
	f := newRecognitionFixture(t)
	old := f.activate(t)
	f.r.Stop()
	if f.r.State() != CaptureIdle {
		t.Fatalf("state after Stop = %s", f.r.State())
	}
	if call, ok := f.platform.LastCall("stop"); !ok || call.ID != old {
		t.Fatalf("platform stop = %+v", call)
	}

	f.r.Dispatch(CaptureEvent{SessionID: old, Type: CaptureEventResult, Transcript: "late"})
	if len(f.transcripts) != 0 {
		t.Fatalf("late result delivered: %q", f.transcripts)
	}

	current := f.activate(t)
	f.r.Dispatch(CaptureEvent{SessionID: old, Type: CaptureEventError, Code: "network"})
	if f.r.State() != CaptureListening || f.r.Session().ID != current {
		t.Fatalf("stale error changed state to %s", f.r.State())
	}
}

func TestRecognitionStopCancelsPendingRetry(t *testing.T) {
	f := newRecognitionFixture(t)
	id := f.activate(t)
	f.fail(id, "network")
	f.r.Stop()

	f.sched.Advance(time.Minute)
	if f.r.State() != CaptureIdle {
		t.Fatalf("retry ran after Stop")
	}
}

func TestRecognitionActivateGuards(t *testing.T) {
	f := newRecognitionFixture(t)
	f.activate(t)
	if err := f.r.Activate(); !errors.Is(err, ErrAlreadyListening) {
		t.Fatalf("second Activate error = %v, want ErrAlreadyListening", err)
	}

	unsupported := NewRecognition(NewMockPlatform(), &manualScheduler{}, nil, false, nil)
	if err := unsupported.Activate(); !errors.Is(err, ErrCaptureUnsupported) {
		t.Fatalf("Activate unsupported error = %v, want ErrCaptureUnsupported", err)
	}
}

func TestRecognitionToggle(t *testing.T) {
	f := newRecognitionFixture(t)
	if err := f.r.Toggle(); err != nil || f.r.State() != CaptureListening {
		t.Fatalf("Toggle from idle: %v, state %s", err, f.r.State())
	}
	if err := f.r.Toggle(); err != nil || f.r.State() != CaptureIdle {
		t.Fatalf("Toggle from listening: %v, state %s", err, f.r.State())
	}
}

func TestRecognitionLanguageAppliesToNextSession(t *testing.T) {
	f := newRecognitionFixture(t)
	id := f.activate(t)

	got, err := f.r.SetLanguage("hi_IN")
	if err != nil || got != "hi-IN" {
		t.Fatalf("SetLanguage = %q, %v", got, err)
	}
	if f.r.Session().LanguageTag != DefaultLanguageTag {
		t.Fatalf("running session language changed to %q", f.r.Session().LanguageTag)
	}
	f.r.Dispatch(CaptureEvent{SessionID: id, Type: CaptureEventEnd})

	next := f.activate(t)
	if call, _ := f.platform.LastCall("start"); call.Language != "hi-IN" {
		t.Fatalf("platform start language = %q, want hi-IN", call.Language)
	}
	f.r.Dispatch(CaptureEvent{SessionID: next, Type: CaptureEventStart})
	if got := f.status.last(); got.msg != "Listening in Hindi..." {
		t.Fatalf("status = %+v", got)
	}

	if _, err := f.r.SetLanguage("not a tag!"); !errors.Is(err, ErrInvalidLanguage) {
		t.Fatalf("SetLanguage(invalid) error = %v, want ErrInvalidLanguage", err)
	}
	if f.r.Language() != "hi-IN" {
		t.Fatalf("invalid tag changed language to %q", f.r.Language())
	}
}
