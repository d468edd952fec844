package voice

import (
	"strings"
	"sync"
)

// MockCall is one command recorded by MockPlatform.
type MockCall struct {
	Op        string
	ID        string
	Text      string
	Voice     string
	Language  string
	Utterance Utterance
}

// MockPlatform is an in-memory speech platform for tests. It records every command and never
// emits callbacks on its own; tests feed callbacks back through Dispatch.
type MockPlatform struct {
	mu        sync.Mutex
	voices    []VoiceDescriptor
	calls     []MockCall
	speakErr  error
	startErrs []error
}

func NewMockPlatform(voices ...VoiceDescriptor) *MockPlatform {
	return &MockPlatform{voices: voices}
}

func (p *MockPlatform) SetVoices(voices ...VoiceDescriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voices = voices
}

// FailSpeak makes the next Speak calls return err until cleared with nil.
func (p *MockPlatform) FailSpeak(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.speakErr = err
}

// FailStarts queues errors returned by the next Start calls, in order.
func (p *MockPlatform) FailStarts(errs ...error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startErrs = append(p.startErrs, errs...)
}

func (p *MockPlatform) Voices() []VoiceDescriptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]VoiceDescriptor, len(p.voices))
	copy(out, p.voices)
	return out
}

func (p *MockPlatform) Speak(u Utterance) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	call := MockCall{Op: "speak", ID: u.ID, Text: u.Text, Utterance: u}
	if u.Voice != nil {
		call.Voice = u.Voice.Name
	}
	p.calls = append(p.calls, call)
	return p.speakErr
}

func (p *MockPlatform) Pause()  { p.record(MockCall{Op: "pause"}) }
func (p *MockPlatform) Resume() { p.record(MockCall{Op: "resume"}) }
func (p *MockPlatform) Cancel() { p.record(MockCall{Op: "cancel"}) }

func (p *MockPlatform) Start(sessionID, languageTag string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, MockCall{Op: "start", ID: sessionID, Language: languageTag})
	if len(p.startErrs) == 0 {
		return nil
	}
	err := p.startErrs[0]
	p.startErrs = p.startErrs[1:]
	return err
}

func (p *MockPlatform) Stop(sessionID string) { p.record(MockCall{Op: "stop", ID: sessionID}) }

func (p *MockPlatform) record(c MockCall) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, c)
}

// Calls returns recorded commands, optionally filtered by operation.
func (p *MockPlatform) Calls(ops ...string) []MockCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(ops) == 0 {
		out := make([]MockCall, len(p.calls))
		copy(out, p.calls)
		return out
	}
	var out []MockCall
	for _, c := range p.calls {
		for _, op := range ops {
			if c.Op == op {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// LastCall returns the most recent command with op.
func (p *MockPlatform) LastCall(op string) (MockCall, bool) {
	calls := p.Calls(op)
	if len(calls) == 0 {
		return MockCall{}, false
	}
	return calls[len(calls)-1], true
}

// Ops lists recorded operation names joined by spaces.
func (p *MockPlatform) Ops() string {
	calls := p.Calls()
	ops := make([]string, 0, len(calls))
	for _, c := range calls {
		ops = append(ops, c.Op)
	}
	return strings.Join(ops, " ")
}

func (p *MockPlatform) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}
