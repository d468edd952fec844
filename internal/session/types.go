package session

import (
	"time"

	"github.com/ent0n29/coachvoice/internal/voice"
)

// CreateRequest defines payload for creating a new voice session.
// A missing capability probe means both recognition and synthesis are available.
type CreateRequest struct {
	Capabilities *voice.Capabilities `json:"capabilities,omitempty"`
	Language     string              `json:"language"`
}

// CreateResponse returns created session metadata.
type CreateResponse struct {
	SessionID       string             `json:"session_id"`
	Status          Status             `json:"status"`
	Capabilities    voice.Capabilities `json:"capabilities"`
	Language        string             `json:"language"`
	StartedAt       time.Time          `json:"started_at"`
	LastActivityAt  time.Time          `json:"last_activity_at"`
	InactivityTTLMS int64              `json:"inactivity_ttl_ms"`
	WebSocketPath   string             `json:"ws_path"`
}
