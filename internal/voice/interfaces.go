package voice

import "time"

// Severity classifies a status message for the status display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// StatusSink shows transient status messages. Calls are fire-and-forget.
type StatusSink interface {
	ShowStatus(message string, severity Severity)
}

// Synthesizer is the platform speech engine. Speak queues exactly one utterance;
// lifecycle callbacks come back through Synthesis.Dispatch carrying the utterance ID.
type Synthesizer interface {
	Speak(u Utterance) error
	Pause()
	Resume()
	Cancel()
}

// Recognizer is the platform capture engine. Start may fail synchronously
// (for example when a capture is still winding down); callbacks come back through
// Recognition.Dispatch carrying the session ID.
type Recognizer interface {
	Start(sessionID, languageTag string) error
	Stop(sessionID string)
}

// VoiceSource exposes the voices currently installed on the platform.
type VoiceSource interface {
	Voices() []VoiceDescriptor
}

// Scheduler runs fn once after d on the event loop. The returned func cancels it.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
}

// Poster queues fn on the event loop. It reports false once the loop has stopped.
type Poster interface {
	Post(fn func()) bool
}

// Capabilities is the platform capability probe, taken once when a session starts.
type Capabilities struct {
	Recognition bool `json:"recognition"`
	Synthesis   bool `json:"synthesis"`
}

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one rendered chat bubble.
type ChatMessage struct {
	Role      ChatRole
	Text      string
	Citations []string
}

// ChatSink renders chat messages.
type ChatSink interface {
	AddMessage(msg ChatMessage)
}
