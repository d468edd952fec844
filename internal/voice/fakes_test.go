package voice

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ent0n29/coachvoice/internal/assistant"
	"github.com/ent0n29/coachvoice/internal/reliability"
)

// manualScheduler is a virtual clock; timers fire only from Advance.
type manualScheduler struct {
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	t := &manualTimer{at: s.now + d, seq: s.seq, fn: fn}
	s.seq++
	s.timers = append(s.timers, t)
	return func() bool {
		if t.fired || t.stopped {
			return false
		}
		t.stopped = true
		return true
	}
}

func (s *manualScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		var due []*manualTimer
		for _, t := range s.timers {
			if !t.fired && !t.stopped && t.at <= target {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			break
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at != due[j].at {
				return due[i].at < due[j].at
			}
			return due[i].seq < due[j].seq
		})
		next := due[0]
		s.now = next.at
		next.fired = true
		next.fn()
	}
	s.now = target
}

func (s *manualScheduler) Pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

type statusEntry struct {
	msg string
	sev Severity
}

type statusRecorder struct {
	entries []statusEntry
}

func (r *statusRecorder) ShowStatus(msg string, sev Severity) {
	r.entries = append(r.entries, statusEntry{msg: msg, sev: sev})
}

func (r *statusRecorder) last() statusEntry {
	if len(r.entries) == 0 {
		return statusEntry{}
	}
	return r.entries[len(r.entries)-1]
}

func (r *statusRecorder) has(msg string, sev Severity) bool {
	for _, e := range r.entries {
		if e.msg == msg && e.sev == sev {
			return true
		}
	}
	return false
}

type chatRecorder struct {
	messages []ChatMessage
}

func (r *chatRecorder) AddMessage(msg ChatMessage) {
	r.messages = append(r.messages, msg)
}

// chanPoster hands posted work back to the test goroutine.
type chanPoster struct {
	ch chan func()
}

func newChanPoster() *chanPoster { return &chanPoster{ch: make(chan func(), 8)} }

func (p *chanPoster) Post(fn func()) bool {
	p.ch <- fn
	return true
}

func (p *chanPoster) runNext(t *testing.T) {
	t.Helper()
	select {
	case fn := <-p.ch:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for posted work")
	}
}

type fakeDispatcher struct {
	reply   assistant.Reply
	err     error
	release chan struct{}

	mu   sync.Mutex
	sent []string
}

func (d *fakeDispatcher) SendUserText(_ context.Context, text string) (assistant.Reply, error) {
	d.mu.Lock()
	d.sent = append(d.sent, text)
	d.mu.Unlock()
	if d.release != nil {
		<-d.release
	}
	return d.reply, d.err
}

type recordingObserver struct {
	utterances []string
	captures   []reliability.Class
	dispatches []string
}

func (o *recordingObserver) UtteranceFinished(role Role, outcome string) {
	o.utterances = append(o.utterances, string(role)+":"+outcome)
}

func (o *recordingObserver) CaptureFailed(class reliability.Class) {
	o.captures = append(o.captures, class)
}

func (o *recordingObserver) DispatchFinished(outcome string, _ time.Duration) {
	o.dispatches = append(o.dispatches, outcome)
}

var (
	voiceZira    = VoiceDescriptor{Name: "Microsoft Zira Desktop", Lang: "en-US"}
	voiceDavid   = VoiceDescriptor{Name: "Microsoft David Desktop", Lang: "en-US"}
	voiceGoogle  = VoiceDescriptor{Name: "Google US English", Lang: "en-US"}
	voiceLekha   = VoiceDescriptor{Name: "Lekha", Lang: "hi-IN"}
	voiceMarathi = VoiceDescriptor{Name: "Google मराठी", Lang: "mr_IN"}
)
