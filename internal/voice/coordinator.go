package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ent0n29/coachvoice/internal/assistant"
	"github.com/ent0n29/coachvoice/internal/policy"
	"github.com/ent0n29/coachvoice/internal/reliability"
)

const (
	voiceLoadFallback = time.Second
	welcomeDelay      = 500 * time.Millisecond
)

// DefaultWelcomeText greets the user once voices are available.
const DefaultWelcomeText = "Hello! Welcome to your Personal Fitness AI Coach. I'm here to help you achieve your health and fitness goals. Please feel free to ask me anything about exercise, nutrition, wellness, or healthy living. How may I assist you today?"

const (
	msgConnectivityFailure = "Unable to connect to the server. Please make sure the backend is running."
	msgDispatchFailure     = "Sorry, I encountered an error. Please try again."
	statusTranscriptQueued = "Message queued until the current reply arrives"
)

var voiceTestPhrases = map[string]string{
	"en": "Hello! This is my voice.",
	"hi": "नमस्ते! मैं आपका फिटनेस सहायक हूं।",
	"mr": "नमस्कार! मी तुमचा फिटनेस सहाय्यक आहे।",
}

// Observer receives coordinator outcomes for metrics.
type Observer interface {
	UtteranceFinished(role Role, outcome string)
	CaptureFailed(class reliability.Class)
	DispatchFinished(outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) UtteranceFinished(Role, string)         {}
func (nopObserver) CaptureFailed(reliability.Class)        {}
func (nopObserver) DispatchFinished(string, time.Duration) {}

// Deps are the collaborators a coordinator is built from.
type Deps struct {
	Synthesizer Synthesizer
	Recognizer  Recognizer
	Voices      VoiceSource
	Status      StatusSink
	Chat        ChatSink
	Dispatcher  assistant.Dispatcher
	Poster      Poster
	Scheduler   Scheduler
	Observer    Observer
	Logger      *zap.Logger
}

type Options struct {
	Capabilities Capabilities
	WelcomeText  string
	LanguageTag  string
}

// Coordinator binds capture, synthesis, sanitizing and message dispatch for one session.
// Every method must run on the session's event loop.
type Coordinator struct {
	caps        Capabilities
	welcomeText string

	catalog     *Catalog
	synthesis   *Synthesis
	recognition *Recognition

	status     StatusSink
	chat       ChatSink
	dispatcher assistant.Dispatcher
	poster     Poster
	scheduler  Scheduler
	observer   Observer
	logger     *zap.Logger
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	voiceEnabled bool
	voicesLoaded bool
	dispatching  bool
	queued       []string // spoken messages waiting for the in-flight dispatch
	generation   uint64
	closed       bool
}

func NewCoordinator(deps Deps, opts Options) (*Coordinator, error) {
	if deps.Dispatcher == nil {
		return nil, errors.New("coordinator requires a dispatcher")
	}
	if deps.Poster == nil || deps.Scheduler == nil {
		return nil, errors.New("coordinator requires an event loop")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	observer := deps.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	welcome := strings.TrimSpace(opts.WelcomeText)
	if welcome == "" {
		welcome = DefaultWelcomeText
	}

	synthesizer := deps.Synthesizer
	if !opts.Capabilities.Synthesis {
		synthesizer = nil
	}

	catalog := NewCatalog(deps.Voices, &VoicePreference{}, logger.Named("catalog"))
	recognition := NewRecognition(deps.Recognizer, deps.Scheduler, deps.Status, opts.Capabilities.Recognition, logger.Named("recognition"))
	if strings.TrimSpace(opts.LanguageTag) != "" {
		if _, err := recognition.SetLanguage(opts.LanguageTag); err != nil {
			return nil, fmt.Errorf("initial language: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		caps:         opts.Capabilities,
		welcomeText:  welcome,
		catalog:      catalog,
		synthesis:    NewSynthesis(synthesizer, catalog, logger.Named("synthesis")),
		recognition:  recognition,
		status:       deps.Status,
		chat:         deps.Chat,
		dispatcher:   deps.Dispatcher,
		poster:       deps.Poster,
		scheduler:    deps.Scheduler,
		observer:     observer,
		logger:       logger,
		now:          time.Now,
		ctx:          ctx,
		cancel:       cancel,
		voiceEnabled: true,
	}
	c.synthesis.SetHooks(SynthesisHooks{
		OnEnd:    func(u Utterance) { c.observer.UtteranceFinished(u.Role, "completed") },
		OnCancel: func(u Utterance) { c.observer.UtteranceFinished(u.Role, "cancelled") },
		OnError: func(u Utterance, err error) {
			c.observer.UtteranceFinished(u.Role, "failed")
			c.logger.Warn("utterance failed", zap.String("role", string(u.Role)), zap.Error(err))
		},
	})
	recognition.OnTranscript(c.handleTranscript)
	recognition.OnError(func(err error) { c.observer.CaptureFailed(reliability.ClassOf(err)) })
	return c, nil
}

func (c *Coordinator) Catalog() *Catalog         { return c.catalog }
func (c *Coordinator) Synthesis() *Synthesis     { return c.synthesis }
func (c *Coordinator) Recognition() *Recognition { return c.recognition }
func (c *Coordinator) VoiceEnabled() bool        { return c.voiceEnabled }

// Start reports missing capabilities and begins voice discovery.
func (c *Coordinator) Start() {
	if !c.caps.Recognition {
		c.showStatus("Voice input not supported in this browser", SeverityError)
	}
	c.VoicesChanged()
	c.scheduler.AfterFunc(voiceLoadFallback, func() {
		if !c.closed && !c.voicesLoaded {
			c.VoicesChanged()
		}
	})
}

// VoicesChanged refreshes the catalog. The first non-empty list schedules the welcome.
func (c *Coordinator) VoicesChanged() {
	if c.closed {
		return
	}
	voices := c.catalog.Refresh()
	if len(voices) == 0 || c.voicesLoaded {
		return
	}
	c.voicesLoaded = true
	c.scheduler.AfterFunc(welcomeDelay, c.playWelcome)
}

func (c *Coordinator) playWelcome() {
	if c.closed {
		return
	}
	if c.voiceEnabled && c.caps.Synthesis {
		if _, err := c.synthesis.SpeakWelcome(c.welcomeText); err != nil {
			c.logger.Info("welcome skipped", zap.Error(err))
		}
	}
	c.showStatus("Ready to assist you!", SeveritySuccess)
}

func (c *Coordinator) handleTranscript(transcript string) {
	redacted := policy.RedactTranscript(transcript)
	c.logger.Info("transcript received", zap.String("text", redacted))
	err := c.SubmitUserText(transcript)
	switch {
	case errors.Is(err, ErrDispatchInFlight):
		c.queued = append(c.queued, transcript)
		c.showStatus(statusTranscriptQueued, SeverityInfo)
	case err != nil:
		c.logger.Info("transcript not submitted", zap.Error(err))
	}
}

// submitQueued sends the oldest spoken message that arrived during a dispatch.
func (c *Coordinator) submitQueued() {
	if c.closed || c.dispatching || len(c.queued) == 0 {
		return
	}
	next := c.queued[0]
	c.queued = c.queued[1:]
	if err := c.SubmitUserText(next); err != nil {
		c.logger.Info("queued transcript not submitted", zap.Error(err))
	}
}

// SubmitUserText sends a user message to the assistant and echoes it when voice is on.
func (c *Coordinator) SubmitUserText(text string) error {
	if c.closed {
		return ErrSessionClosed
	}
	text = strings.TrimSpace(text)
	if text == "" {
		c.showStatus("Please enter a message", SeverityError)
		return ErrEmptyMessage
	}
	if c.dispatching {
		return ErrDispatchInFlight
	}

	c.addChat(ChatMessage{Role: ChatRoleUser, Text: text})
	c.speak(NewUtterance(SanitizeSpeechText(text), RoleUserEcho))

	c.dispatching = true
	gen := c.generation
	started := c.now()
	ctx := c.ctx
	dispatcher := c.dispatcher
	go func() {
		reply, err := dispatcher.SendUserText(ctx, text)
		c.poster.Post(func() { c.finishDispatch(gen, started, reply, err) })
	}()
	return nil
}

func (c *Coordinator) finishDispatch(gen uint64, started time.Time, reply assistant.Reply, err error) {
	if c.closed || gen != c.generation {
		c.logger.Debug("dropping stale dispatch result")
		return
	}
	c.dispatching = false
	defer c.submitQueued()
	elapsed := c.now().Sub(started)

	if err != nil {
		var connErr *assistant.ConnectivityError
		msg := msgDispatchFailure
		outcome := "server_error"
		if errors.As(err, &connErr) {
			msg = msgConnectivityFailure
			outcome = "connectivity_error"
		}
		c.observer.DispatchFinished(outcome, elapsed)
		c.logger.Warn("message dispatch failed", zap.String("outcome", outcome), zap.Error(err))
		c.addChat(ChatMessage{Role: ChatRoleAssistant, Text: msg})
		c.speak(NewUtterance(SanitizeSpeechText(msg), RoleAssistantReply))
		c.showStatus("Error sending message", SeverityError)
		return
	}

	c.observer.DispatchFinished("success", elapsed)
	c.addChat(ChatMessage{Role: ChatRoleAssistant, Text: reply.Text, Citations: reply.Citations})
	c.speak(NewUtterance(SanitizeSpeechText(reply.Text), RoleAssistantReply))
}

// speak is the single gate for voice output.
func (c *Coordinator) speak(u Utterance) bool {
	if !c.voiceEnabled || !c.caps.Synthesis {
		return false
	}
	if _, err := c.synthesis.Speak(u); err != nil {
		if errors.Is(err, ErrEmptyUtterance) {
			c.logger.Debug("nothing to speak", zap.String("role", string(u.Role)))
		} else {
			c.logger.Warn("speak failed", zap.String("role", string(u.Role)), zap.Error(err))
		}
		return false
	}
	return true
}

// SetVoiceEnabled switches voice output. Turning it off cancels any active utterance.
func (c *Coordinator) SetVoiceEnabled(enabled bool) {
	c.voiceEnabled = enabled
	if enabled {
		c.showStatus("Voice mode enabled", SeveritySuccess)
		return
	}
	c.synthesis.Cancel()
	c.showStatus("Voice mode disabled", SeverityInfo)
}

func (c *Coordinator) ToggleVoice() {
	c.SetVoiceEnabled(!c.voiceEnabled)
}

// PressVoiceButton pauses or resumes active speech, otherwise toggles voice output.
func (c *Coordinator) PressVoiceButton() {
	switch c.synthesis.State() {
	case SynthesisSpeaking:
		c.PauseSpeech()
	case SynthesisPaused:
		c.ResumeSpeech()
	default:
		c.ToggleVoice()
	}
}

func (c *Coordinator) PauseSpeech() {
	if c.synthesis.Pause() {
		c.showStatus("Speech paused", SeverityInfo)
	}
}

func (c *Coordinator) ResumeSpeech() {
	if c.synthesis.Resume() {
		c.showStatus("Speech resumed", SeveritySuccess)
	}
}

// SelectVoice makes the named voice current. Active speech restarts with it,
// otherwise a short phrase in the voice's language is played.
func (c *Coordinator) SelectVoice(name string) error {
	v, err := c.catalog.Lookup(name)
	if err != nil {
		return fmt.Errorf("select voice %q: %w", name, err)
	}

	if c.synthesis.Active() {
		if _, err := c.synthesis.SwapVoice(v); err != nil {
			c.logger.Warn("voice swap failed", zap.String("voice", v.Name), zap.Error(err))
		}
		c.showStatus("Voice changed to: "+v.Name, SeveritySuccess)
		c.showStatus("Continuing with "+v.Name, SeverityInfo)
		return nil
	}

	c.catalog.Preference().Set(v)
	c.showStatus("Voice changed to: "+v.Name, SeveritySuccess)

	phrase, ok := voiceTestPhrases[v.Family()]
	if !ok {
		phrase = voiceTestPhrases[DefaultFamily]
	}
	u := NewUtterance(phrase, RoleVoiceTest)
	u.Voice = &v
	c.speak(u)
	return nil
}

// SetLanguage changes the recognition language used from the next capture.
func (c *Coordinator) SetLanguage(tag string) error {
	normalized, err := c.recognition.SetLanguage(tag)
	if err != nil {
		return err
	}
	c.showStatus("Speech recognition set to: "+LanguageLabel(normalized), SeveritySuccess)
	return nil
}

// ToggleCapture is the microphone button.
func (c *Coordinator) ToggleCapture() error {
	err := c.recognition.Toggle()
	switch {
	case errors.Is(err, ErrCaptureUnsupported):
		c.showStatus("Speech recognition not available", SeverityError)
	case errors.Is(err, ErrCaptureDisabled):
		c.showStatus(statusMicDenied, SeverityError)
	}
	return err
}

// PageHidden stops speech when the page is no longer visible.
func (c *Coordinator) PageHidden() {
	c.synthesis.Cancel()
}

// HandleSynthesisEvent routes a platform synthesis callback.
func (c *Coordinator) HandleSynthesisEvent(ev SynthesisEvent) {
	c.synthesis.Dispatch(ev)
}

// HandleCaptureEvent routes a platform capture callback.
func (c *Coordinator) HandleCaptureEvent(ev CaptureEvent) {
	c.recognition.Dispatch(ev)
}

// Teardown stops capture and speech. Dispatch results arriving later are ignored.
func (c *Coordinator) Teardown() {
	if c.closed {
		return
	}
	c.closed = true
	c.generation++
	c.dispatching = false
	c.queued = nil
	c.cancel()
	c.recognition.Teardown()
	c.synthesis.Cancel()
}

func (c *Coordinator) showStatus(msg string, sev Severity) {
	if c.status != nil {
		c.status.ShowStatus(msg, sev)
	}
}

func (c *Coordinator) addChat(msg ChatMessage) {
	if c.chat != nil {
		c.chat.AddMessage(msg)
	}
}

// LanguageLabel is the picker label for a recognition language.
func LanguageLabel(tag string) string {
	family := LanguageFamily(tag)
	for _, f := range SupportedFamilies {
		if f.Family == family {
			return f.Label
		}
	}
	return tag
}
