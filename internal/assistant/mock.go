package assistant

import (
	"context"
	"fmt"
	"strings"
)

// MockDispatcher provides deterministic local replies when no assistant is configured.
type MockDispatcher struct{}

func NewMockDispatcher() *MockDispatcher { return &MockDispatcher{} }

func (d *MockDispatcher) SendUserText(ctx context.Context, text string) (Reply, error) {
	select {
	case <-ctx.Done():
		return Reply{}, &ConnectivityError{Err: ctx.Err()}
	default:
	}

	base := strings.TrimSpace(text)
	if base == "" {
		base = "nothing yet"
	}
	return Reply{
		Text:      fmt.Sprintf("You asked about: %s. Stay active and drink plenty of water.", base),
		Citations: []string{"mock"},
	}, nil
}
