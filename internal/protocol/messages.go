package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeHello           MessageType = "hello"
	TypeVoicesChanged   MessageType = "voices_changed"
	TypeUserText        MessageType = "user_text"
	TypeTTSEvent        MessageType = "tts_event"
	TypeSTTEvent        MessageType = "stt_event"
	TypeClientControl   MessageType = "client_control"
	TypeSelectVoice     MessageType = "select_voice"
	TypeSetLanguage     MessageType = "set_language"
	TypeSnapshotRequest MessageType = "snapshot_request"

	TypeTTSSpeak       MessageType = "tts_speak"
	TypeTTSPause       MessageType = "tts_pause"
	TypeTTSResume      MessageType = "tts_resume"
	TypeTTSCancel      MessageType = "tts_cancel"
	TypeSTTStart       MessageType = "stt_start"
	TypeSTTStop        MessageType = "stt_stop"
	TypeStatus         MessageType = "status"
	TypeChatMessage    MessageType = "chat_message"
	TypePickerSnapshot MessageType = "picker_snapshot"
	TypeErrorEvent     MessageType = "error_event"
)

// Control actions carried by client_control.
const (
	ActionMicToggle   = "mic_toggle"
	ActionVoiceButton = "voice_button"
	ActionVoiceOn     = "voice_on"
	ActionVoiceOff    = "voice_off"
	ActionPageHidden  = "page_hidden"
)

var (
	ErrUnsupportedType = errors.New("unsupported message type")
	ErrInvalidMessage  = errors.New("invalid message")
)

type Envelope struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
}

type Voice struct {
	Name   string `json:"name"`
	Lang   string `json:"lang"`
	Gender string `json:"gender,omitempty"`
}

type Hello struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Voices    []Voice     `json:"voices,omitempty"`
}

type VoicesChanged struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Voices    []Voice     `json:"voices"`
}

type UserText struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Text      string      `json:"text"`
}

// TTSEvent is an utterance lifecycle callback: start, end, error, pause or resume.
type TTSEvent struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id"`
	UtteranceID string      `json:"utterance_id"`
	Event       string      `json:"event"`
	Error       string      `json:"error,omitempty"`
}

// STTEvent is a capture callback: start, result, error, end or start_failed.
type STTEvent struct {
	Type       MessageType `json:"type"`
	SessionID  string      `json:"session_id"`
	CaptureID  string      `json:"capture_id"`
	Event      string      `json:"event"`
	Transcript string      `json:"transcript,omitempty"`
	Error      string      `json:"error,omitempty"`
}

type ClientControl struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Action    string      `json:"action"`
}

type SelectVoice struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Name      string      `json:"name"`
}

type SetLanguage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Lang      string      `json:"lang"`
}

type SnapshotRequest struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
}

type TTSSpeak struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id"`
	UtteranceID string      `json:"utterance_id"`
	Text        string      `json:"text"`
	Rate        float64     `json:"rate"`
	Pitch       float64     `json:"pitch"`
	Volume      float64     `json:"volume"`
	Voice       *Voice      `json:"voice,omitempty"`
	Role        string      `json:"role"`
}

// TTSCommand is tts_pause, tts_resume or tts_cancel.
type TTSCommand struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
}

type STTStart struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	CaptureID string      `json:"capture_id"`
	Lang      string      `json:"lang"`
}

type STTStop struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	CaptureID string      `json:"capture_id"`
}

type Status struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Message   string      `json:"message"`
	Severity  string      `json:"severity"`
}

type ChatMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Role      string      `json:"role"`
	Text      string      `json:"text"`
	Citations []string    `json:"citations,omitempty"`
}

type Bucket struct {
	Family    string `json:"family"`
	Label     string `json:"label"`
	Count     int    `json:"count"`
	Available bool   `json:"available"`
}

type PickerSnapshot struct {
	Type                  MessageType `json:"type"`
	SessionID             string      `json:"session_id"`
	CurrentVoice          *Voice      `json:"current_voice,omitempty"`
	Voices                []Voice     `json:"voices"`
	Language              string      `json:"language"`
	LanguageName          string      `json:"language_name"`
	Buckets               []Bucket    `json:"buckets"`
	RegionalVoicesMissing bool        `json:"regional_voices_missing"`
	VoiceEnabled          bool        `json:"voice_enabled"`
	SynthesisState        string      `json:"synthesis_state"`
	CaptureState          string      `json:"capture_state"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Source    string      `json:"source"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

var clientTypes = map[MessageType]bool{
	TypeHello:           true,
	TypeVoicesChanged:   true,
	TypeUserText:        true,
	TypeTTSEvent:        true,
	TypeSTTEvent:        true,
	TypeClientControl:   true,
	TypeSelectVoice:     true,
	TypeSetLanguage:     true,
	TypeSnapshotRequest: true,
}

func invalid(t MessageType, reason string) error {
	return fmt.Errorf("%w %s: %s", ErrInvalidMessage, t, reason)
}

func decode[T any](raw []byte) (T, error) {
	var msg T
	err := json.Unmarshal(raw, &msg)
	return msg, err
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}
	if !clientTypes[env.Type] {
		return nil, ErrUnsupportedType
	}
	if strings.TrimSpace(env.SessionID) == "" {
		return nil, invalid(env.Type, "missing session_id")
	}

	switch env.Type {
	case TypeHello:
		return decode[Hello](raw)
	case TypeVoicesChanged:
		return decode[VoicesChanged](raw)
	case TypeUserText:
		return decode[UserText](raw)
	case TypeTTSEvent:
		msg, err := decode[TTSEvent](raw)
		if err != nil {
			return nil, err
		}
		if msg.UtteranceID == "" || msg.Event == "" {
			return nil, invalid(env.Type, "utterance_id and event are required")
		}
		return msg, nil
	case TypeSTTEvent:
		msg, err := decode[STTEvent](raw)
		if err != nil {
			return nil, err
		}
		if msg.CaptureID == "" || msg.Event == "" {
			return nil, invalid(env.Type, "capture_id and event are required")
		}
		return msg, nil
	case TypeClientControl:
		msg, err := decode[ClientControl](raw)
		if err != nil {
			return nil, err
		}
		switch msg.Action {
		case ActionMicToggle, ActionVoiceButton, ActionVoiceOn, ActionVoiceOff, ActionPageHidden:
			return msg, nil
		default:
			return nil, invalid(env.Type, fmt.Sprintf("unknown action %q", msg.Action))
		}
	case TypeSelectVoice:
		msg, err := decode[SelectVoice](raw)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.Name) == "" {
			return nil, invalid(env.Type, "name is required")
		}
		return msg, nil
	case TypeSetLanguage:
		msg, err := decode[SetLanguage](raw)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.Lang) == "" {
			return nil, invalid(env.Type, "lang is required")
		}
		return msg, nil
	case TypeSnapshotRequest:
		return decode[SnapshotRequest](raw)
	default:
		return nil, ErrUnsupportedType
	}
}

// TypeOf returns the type tag of any message defined in this package.
func TypeOf(msg any) (MessageType, bool) {
	switch m := msg.(type) {
	case Hello:
		return m.Type, true
	case VoicesChanged:
		return m.Type, true
	case UserText:
		return m.Type, true
	case TTSEvent:
		return m.Type, true
	case STTEvent:
		return m.Type, true
	case ClientControl:
		return m.Type, true
	case SelectVoice:
		return m.Type, true
	case SetLanguage:
		return m.Type, true
	case SnapshotRequest:
		return m.Type, true
	case TTSSpeak:
		return m.Type, true
	case TTSCommand:
		return m.Type, true
	case STTStart:
		return m.Type, true
	case STTStop:
		return m.Type, true
	case Status:
		return m.Type, true
	case ChatMessage:
		return m.Type, true
	case PickerSnapshot:
		return m.Type, true
	case ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
