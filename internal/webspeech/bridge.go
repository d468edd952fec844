package webspeech

import (
	"context"

	"github.com/ent0n29/coachvoice/internal/protocol"
	"github.com/ent0n29/coachvoice/internal/voice"
)

// Bridge is the browser speech platform seen from the server. Every platform
// call becomes one outbound protocol message; voices are cached from the
// client's hello and voices_changed reports.
//
// A Bridge is used from the session's event loop only.
type Bridge struct {
	ctx       context.Context
	sessionID string
	out       chan<- any
	voices    []voice.VoiceDescriptor
}

func NewBridge(ctx context.Context, sessionID string, out chan<- any) *Bridge {
	return &Bridge{ctx: ctx, sessionID: sessionID, out: out}
}

// emit blocks until the writer accepts msg so command order is preserved.
func (b *Bridge) emit(msg any) {
	select {
	case b.out <- msg:
	case <-b.ctx.Done():
	}
}

// SetVoices replaces the cached platform voice list.
func (b *Bridge) SetVoices(voices []protocol.Voice) {
	out := make([]voice.VoiceDescriptor, 0, len(voices))
	for _, v := range voices {
		d := voice.NewVoiceDescriptor(v.Name, v.Lang)
		if g := voice.Gender(v.Gender); g == voice.GenderFemale || g == voice.GenderMale {
			d.Gender = g
		}
		out = append(out, d)
	}
	b.voices = out
}

func (b *Bridge) Voices() []voice.VoiceDescriptor {
	return append([]voice.VoiceDescriptor(nil), b.voices...)
}

func (b *Bridge) Speak(u voice.Utterance) error {
	msg := protocol.TTSSpeak{
		Type:        protocol.TypeTTSSpeak,
		SessionID:   b.sessionID,
		UtteranceID: u.ID,
		Text:        u.Text,
		Rate:        u.Rate,
		Pitch:       u.Pitch,
		Volume:      u.Volume,
		Role:        string(u.Role),
	}
	if u.Voice != nil {
		v := toProtocolVoice(*u.Voice)
		msg.Voice = &v
	}
	if err := b.ctx.Err(); err != nil {
		return err
	}
	b.emit(msg)
	return nil
}

func (b *Bridge) Pause()  { b.command(protocol.TypeTTSPause) }
func (b *Bridge) Resume() { b.command(protocol.TypeTTSResume) }
func (b *Bridge) Cancel() { b.command(protocol.TypeTTSCancel) }

func (b *Bridge) command(t protocol.MessageType) {
	b.emit(protocol.TTSCommand{Type: t, SessionID: b.sessionID})
}

func (b *Bridge) Start(captureID, languageTag string) error {
	if err := b.ctx.Err(); err != nil {
		return err
	}
	b.emit(protocol.STTStart{
		Type:      protocol.TypeSTTStart,
		SessionID: b.sessionID,
		CaptureID: captureID,
		Lang:      languageTag,
	})
	return nil
}

func (b *Bridge) Stop(captureID string) {
	b.emit(protocol.STTStop{Type: protocol.TypeSTTStop, SessionID: b.sessionID, CaptureID: captureID})
}

func (b *Bridge) ShowStatus(message string, severity voice.Severity) {
	b.emit(protocol.Status{
		Type:      protocol.TypeStatus,
		SessionID: b.sessionID,
		Message:   message,
		Severity:  string(severity),
	})
}

func (b *Bridge) AddMessage(msg voice.ChatMessage) {
	b.emit(protocol.ChatMessage{
		Type:      protocol.TypeChatMessage,
		SessionID: b.sessionID,
		Role:      string(msg.Role),
		Text:      msg.Text,
		Citations: msg.Citations,
	})
}

// SendSnapshot pushes the current picker state.
func (b *Bridge) SendSnapshot(s voice.PickerSnapshot) {
	b.emit(toProtocolSnapshot(b.sessionID, s))
}

// SendError reports a rejected client request.
func (b *Bridge) SendError(code, source string, retryable bool, detail string) {
	b.emit(protocol.ErrorEvent{
		Type:      protocol.TypeErrorEvent,
		SessionID: b.sessionID,
		Code:      code,
		Source:    source,
		Retryable: retryable,
		Detail:    detail,
	})
}

func toProtocolVoice(v voice.VoiceDescriptor) protocol.Voice {
	return protocol.Voice{Name: v.Name, Lang: v.Lang, Gender: string(v.Gender)}
}

func toProtocolSnapshot(sessionID string, s voice.PickerSnapshot) protocol.PickerSnapshot {
	out := protocol.PickerSnapshot{
		Type:                  protocol.TypePickerSnapshot,
		SessionID:             sessionID,
		Voices:                make([]protocol.Voice, 0, len(s.Voices)),
		Language:              s.Language,
		LanguageName:          s.LanguageName,
		Buckets:               make([]protocol.Bucket, 0, len(s.Buckets)),
		RegionalVoicesMissing: s.RegionalVoicesMissing,
		VoiceEnabled:          s.VoiceEnabled,
		SynthesisState:        string(s.SynthesisState),
		CaptureState:          string(s.CaptureState),
	}
	if s.CurrentVoice != nil {
		v := toProtocolVoice(*s.CurrentVoice)
		out.CurrentVoice = &v
	}
	for _, v := range s.Voices {
		out.Voices = append(out.Voices, toProtocolVoice(v))
	}
	for _, b := range s.Buckets {
		out.Buckets = append(out.Buckets, protocol.Bucket{
			Family:    b.Family,
			Label:     b.Label,
			Count:     b.Count,
			Available: b.Available,
		})
	}
	return out
}
