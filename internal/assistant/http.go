package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPDispatcher posts user messages to an assistant's /chat endpoint.
type HTTPDispatcher struct {
	url    string
	client *http.Client
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
	Error    string   `json:"error"`
}

func NewHTTPDispatcher(baseURL string, timeout time.Duration) *HTTPDispatcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPDispatcher{
		url: chatURL(baseURL),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func chatURL(baseURL string) string {
	u := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if strings.HasSuffix(u, "/chat") {
		return u
	}
	return u + "/chat"
}

func (d *HTTPDispatcher) SendUserText(ctx context.Context, text string) (Reply, error) {
	payload, err := json.Marshal(chatRequest{Message: text})
	if err != nil {
		return Reply{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return Reply{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := d.client.Do(req)
	if err != nil {
		return Reply{}, &ConnectivityError{Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return Reply{}, &ServerError{StatusCode: res.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		detail := strings.TrimSpace(string(body))
		var parsed chatResponse
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != "" {
			detail = parsed.Error
		}
		return Reply{}, &ServerError{StatusCode: res.StatusCode, Detail: detail}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Reply{}, &ServerError{StatusCode: res.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return Reply{Text: parsed.Response, Citations: parsed.Sources}, nil
}
