package webspeech

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/ent0n29/coachvoice/internal/assistant"
	"github.com/ent0n29/coachvoice/internal/eventloop"
	"github.com/ent0n29/coachvoice/internal/protocol"
	"github.com/ent0n29/coachvoice/internal/session"
	"github.com/ent0n29/coachvoice/internal/voice"
)

const teardownTimeout = 2 * time.Second

// Config holds the per-service settings shared by all connections.
type Config struct {
	WelcomeText     string
	DefaultLanguage string
}

// Service runs one coordinator per websocket connection.
type Service struct {
	cfg        Config
	dispatcher assistant.Dispatcher
	observer   voice.Observer
	clock      clock.Clock
	logger     *zap.Logger
}

func NewService(cfg Config, dispatcher assistant.Dispatcher, observer voice.Observer, clk clock.Clock, logger *zap.Logger) *Service {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:        cfg,
		dispatcher: dispatcher,
		observer:   observer,
		clock:      clk,
		logger:     logger,
	}
}

// RunConnection drives a session until inbound closes or ctx is cancelled.
// Messages on outbound are written to the client in order.
func (s *Service) RunConnection(ctx context.Context, sess *session.Session, inbound <-chan any, outbound chan<- any) error {
	if sess == nil {
		return errors.New("session is required")
	}
	logger := s.logger.With(zap.String("session_id", sess.ID))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The loop outlives ctx so teardown still runs after the client is gone.
	loop := eventloop.New(s.clock, logger.Named("loop"), 0)
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = loop.Run(loopCtx)
	}()

	bridge := NewBridge(ctx, sess.ID, outbound)
	lang := sess.Language
	if lang == "" {
		lang = s.cfg.DefaultLanguage
	}
	coord, err := voice.NewCoordinator(voice.Deps{
		Synthesizer: bridge,
		Recognizer:  bridge,
		Voices:      bridge,
		Status:      bridge,
		Chat:        bridge,
		Dispatcher:  s.dispatcher,
		Poster:      loop,
		Scheduler:   loop,
		Observer:    s.observer,
		Logger:      logger.Named("voice"),
	}, voice.Options{
		Capabilities: sess.Capabilities,
		WelcomeText:  s.cfg.WelcomeText,
		LanguageTag:  lang,
	})
	if err != nil {
		stopLoop()
		<-loopDone
		return fmt.Errorf("create coordinator: %w", err)
	}

	conn := NewConnection(coord, bridge, logger)

	for running := true; running; {
		select {
		case <-ctx.Done():
			running = false
		case msg, ok := <-inbound:
			if !ok {
				running = false
				break
			}
			loop.Post(func() { conn.Route(msg) })
		}
	}

	// Teardown runs on the loop so it sees every message posted before it.
	waitCtx, waitCancel := context.WithTimeout(context.Background(), teardownTimeout)
	if err := loop.Do(waitCtx, coord.Teardown); err != nil && !errors.Is(err, eventloop.ErrClosed) {
		logger.Warn("coordinator teardown incomplete", zap.Error(err))
	}
	waitCancel()
	cancel()
	stopLoop()
	<-loopDone
	logger.Info("voice connection closed")
	return nil
}

// Connection routes client messages to one coordinator. Route must run on the loop.
type Connection struct {
	coord   *voice.Coordinator
	bridge  *Bridge
	logger  *zap.Logger
	started bool
}

// NewConnection pairs a coordinator with the bridge it was built on.
func NewConnection(coord *voice.Coordinator, bridge *Bridge, logger *zap.Logger) *Connection {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connection{coord: coord, bridge: bridge, logger: logger}
}

func (c *Connection) Route(msg any) {
	switch m := msg.(type) {
	case protocol.Hello:
		c.bridge.SetVoices(m.Voices)
		c.startOrRefresh()
		c.snapshot()
	case protocol.VoicesChanged:
		c.bridge.SetVoices(m.Voices)
		c.startOrRefresh()
		c.snapshot()
	case protocol.UserText:
		c.submit(m.Text)
	case protocol.TTSEvent:
		c.coord.HandleSynthesisEvent(voice.SynthesisEvent{
			UtteranceID: m.UtteranceID,
			Type:        voice.SynthesisEventType(m.Event),
			Code:        m.Error,
		})
	case protocol.STTEvent:
		c.coord.HandleCaptureEvent(voice.CaptureEvent{
			SessionID:  m.CaptureID,
			Type:       voice.CaptureEventType(m.Event),
			Transcript: m.Transcript,
			Code:       m.Error,
		})
	case protocol.ClientControl:
		c.control(m.Action)
	case protocol.SelectVoice:
		if err := c.coord.SelectVoice(m.Name); err != nil {
			c.bridge.SendError("voice_not_found", "voice_picker", false, err.Error())
		}
		c.snapshot()
	case protocol.SetLanguage:
		if err := c.coord.SetLanguage(m.Lang); err != nil {
			c.bridge.SendError("invalid_language", "language_picker", false, err.Error())
		}
		c.snapshot()
	case protocol.SnapshotRequest:
		c.snapshot()
	default:
		c.logger.Debug("ignoring message", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (c *Connection) startOrRefresh() {
	if !c.started {
		c.started = true
		c.coord.Start()
		return
	}
	c.coord.VoicesChanged()
}

func (c *Connection) submit(text string) {
	err := c.coord.SubmitUserText(text)
	switch {
	case err == nil, errors.Is(err, voice.ErrEmptyMessage), errors.Is(err, voice.ErrSessionClosed):
	case errors.Is(err, voice.ErrDispatchInFlight):
		c.bridge.SendError("dispatch_in_flight", "chat", true, err.Error())
	default:
		c.logger.Warn("user text rejected", zap.Error(err))
	}
}

func (c *Connection) control(action string) {
	switch action {
	case protocol.ActionMicToggle:
		if err := c.coord.ToggleCapture(); err != nil {
			c.logger.Debug("capture toggle refused", zap.Error(err))
		}
	case protocol.ActionVoiceButton:
		c.coord.PressVoiceButton()
	case protocol.ActionVoiceOn:
		c.coord.SetVoiceEnabled(true)
	case protocol.ActionVoiceOff:
		c.coord.SetVoiceEnabled(false)
	case protocol.ActionPageHidden:
		c.coord.PageHidden()
	}
	c.snapshot()
}

func (c *Connection) snapshot() {
	c.bridge.SendSnapshot(c.coord.Snapshot())
}
