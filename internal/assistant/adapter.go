package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Reply is the remote assistant's answer to one user message.
// Citations are display-only and never spoken.
type Reply struct {
	Text      string   `json:"response"`
	Citations []string `json:"sources,omitempty"`
}

// Dispatcher delivers a user message to the remote assistant.
// Failures are *ConnectivityError or *ServerError; callers never retry on their own.
type Dispatcher interface {
	SendUserText(ctx context.Context, text string) (Reply, error)
}

// Config controls dispatcher construction.
type Config struct {
	Mode    string
	URL     string
	Timeout time.Duration
}

func NewDispatcher(cfg Config) (Dispatcher, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.URL) != "" {
			return NewHTTPDispatcher(cfg.URL, cfg.Timeout), nil
		}
		return NewMockDispatcher(), nil
	case "http":
		if strings.TrimSpace(cfg.URL) == "" {
			return nil, errors.New("assistant url is required for http mode")
		}
		return NewHTTPDispatcher(cfg.URL, cfg.Timeout), nil
	case "mock":
		return NewMockDispatcher(), nil
	default:
		return nil, fmt.Errorf("unsupported assistant mode %q", cfg.Mode)
	}
}
