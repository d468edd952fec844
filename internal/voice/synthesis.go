package voice

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SynthesisState string

const (
	SynthesisIdle     SynthesisState = "idle"
	SynthesisSpeaking SynthesisState = "speaking"
	SynthesisPaused   SynthesisState = "paused"
)

type SynthesisEventType string

const (
	SynthesisEventStart  SynthesisEventType = "start"
	SynthesisEventEnd    SynthesisEventType = "end"
	SynthesisEventError  SynthesisEventType = "error"
	SynthesisEventPause  SynthesisEventType = "pause"
	SynthesisEventResume SynthesisEventType = "resume"
)

// SynthesisEvent is a platform callback for one utterance.
type SynthesisEvent struct {
	UtteranceID string
	Type        SynthesisEventType
	Code        string
}

// SynthesisHooks observe the utterance lifecycle. Nil hooks are skipped.
type SynthesisHooks struct {
	OnStart  func(Utterance)
	OnEnd    func(Utterance)
	OnCancel func(Utterance)
	OnError  func(Utterance, error)
	OnPause  func(Utterance)
	OnResume func(Utterance)
}

// Synthesis owns the single active utterance.
type Synthesis struct {
	platform Synthesizer
	catalog  *Catalog
	hooks    SynthesisHooks
	logger   *zap.Logger
	newID    func() string

	state   SynthesisState
	current *Utterance
}

func NewSynthesis(platform Synthesizer, catalog *Catalog, logger *zap.Logger) *Synthesis {
	if logger == nil {
		logger = zap.NewNop()
	}
	if catalog == nil {
		catalog = NewCatalog(nil, nil, logger)
	}
	return &Synthesis{
		platform: platform,
		catalog:  catalog,
		logger:   logger,
		newID:    uuid.NewString,
		state:    SynthesisIdle,
	}
}

func (s *Synthesis) SetHooks(h SynthesisHooks) { s.hooks = h }

func (s *Synthesis) State() SynthesisState { return s.state }

// Active reports whether an utterance is speaking or paused.
func (s *Synthesis) Active() bool { return s.state != SynthesisIdle }

// Current returns the active utterance.
func (s *Synthesis) Current() (Utterance, bool) {
	if s.current == nil {
		return Utterance{}, false
	}
	return *s.current, true
}

// Speak replaces any active utterance with u and returns u with its assigned ID.
func (s *Synthesis) Speak(u Utterance) (Utterance, error) {
	if s.platform == nil {
		return Utterance{}, ErrSynthesisUnsupported
	}
	if strings.TrimSpace(u.Text) == "" {
		return Utterance{}, ErrEmptyUtterance
	}
	s.Cancel()
	return s.start(u)
}

// SpeakWelcome speaks the greeting. It never interrupts another utterance.
func (s *Synthesis) SpeakWelcome(text string) (Utterance, error) {
	if s.Active() {
		return Utterance{}, ErrSynthesisBusy
	}
	return s.Speak(NewUtterance(text, RoleWelcome))
}

func (s *Synthesis) start(u Utterance) (Utterance, error) {
	if u.Voice == nil {
		if v, ok := s.catalog.Resolve(DefaultFamily); ok {
			u.Voice = &v
		}
	}
	u.ID = s.newID()
	s.current = &u
	s.state = SynthesisSpeaking

	if err := s.platform.Speak(u); err != nil {
		s.current = nil
		s.state = SynthesisIdle
		err = fmt.Errorf("speak utterance %s: %w", u.ID, err)
		s.logger.Warn("platform speak failed", zap.String("utterance_id", u.ID), zap.Error(err))
		if s.hooks.OnError != nil {
			s.hooks.OnError(u, err)
		}
		return u, err
	}
	s.logger.Debug("utterance queued",
		zap.String("utterance_id", u.ID),
		zap.String("role", string(u.Role)),
		zap.Int("chars", len(u.Text)),
	)
	return u, nil
}

// Pause acts only while speaking.
func (s *Synthesis) Pause() bool {
	if s.state != SynthesisSpeaking {
		return false
	}
	s.platform.Pause()
	s.state = SynthesisPaused
	if s.hooks.OnPause != nil {
		s.hooks.OnPause(*s.current)
	}
	return true
}

// Resume acts only while paused.
func (s *Synthesis) Resume() bool {
	if s.state != SynthesisPaused {
		return false
	}
	s.platform.Resume()
	s.state = SynthesisSpeaking
	if s.hooks.OnResume != nil {
		s.hooks.OnResume(*s.current)
	}
	return true
}

// Cancel stops the active utterance and reports it as cancelled. It is a no-op when idle.
func (s *Synthesis) Cancel() bool {
	if s.current == nil {
		s.state = SynthesisIdle
		return false
	}
	u := *s.current
	s.current = nil
	s.state = SynthesisIdle
	if s.platform != nil {
		s.platform.Cancel()
	}
	if s.hooks.OnCancel != nil {
		s.hooks.OnCancel(u)
	}
	return true
}

// SwapVoice makes v the preference. An active utterance restarts from the beginning with v.
func (s *Synthesis) SwapVoice(v VoiceDescriptor) (bool, error) {
	s.catalog.Preference().Set(v)
	if s.current == nil {
		return false, nil
	}
	u := *s.current
	s.Cancel()
	u.Voice = &v
	u.ID = ""
	if _, err := s.start(u); err != nil {
		return true, err
	}
	return true, nil
}

// Dispatch applies a platform callback. Events for any other utterance are dropped.
func (s *Synthesis) Dispatch(ev SynthesisEvent) {
	if s.current == nil || ev.UtteranceID != s.current.ID {
		s.logger.Debug("dropping stale synthesis event",
			zap.String("utterance_id", ev.UtteranceID),
			zap.String("event", string(ev.Type)),
		)
		return
	}
	u := *s.current

	switch ev.Type {
	case SynthesisEventStart:
		if s.hooks.OnStart != nil {
			s.hooks.OnStart(u)
		}
	case SynthesisEventEnd:
		s.current = nil
		s.state = SynthesisIdle
		if s.hooks.OnEnd != nil {
			s.hooks.OnEnd(u)
		}
	case SynthesisEventError:
		s.current = nil
		s.state = SynthesisIdle
		if isCancellationCode(ev.Code) {
			if s.hooks.OnCancel != nil {
				s.hooks.OnCancel(u)
			}
			return
		}
		err := &SynthesisError{UtteranceID: u.ID, Code: ev.Code}
		s.logger.Warn("synthesis error", zap.String("utterance_id", u.ID), zap.String("code", ev.Code))
		if s.hooks.OnError != nil {
			s.hooks.OnError(u, err)
		}
	case SynthesisEventPause:
		if s.state == SynthesisSpeaking {
			s.state = SynthesisPaused
			if s.hooks.OnPause != nil {
				s.hooks.OnPause(u)
			}
		}
	case SynthesisEventResume:
		if s.state == SynthesisPaused {
			s.state = SynthesisSpeaking
			if s.hooks.OnResume != nil {
				s.hooks.OnResume(u)
			}
		}
	default:
		s.logger.Debug("unknown synthesis event", zap.String("event", string(ev.Type)))
	}
}

// The platform reports its own interruptions as errors.
func isCancellationCode(code string) bool {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "interrupted", "canceled":
		return true
	default:
		return false
	}
}
