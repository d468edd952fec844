package app

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/ent0n29/coachvoice/internal/assistant"
	"github.com/ent0n29/coachvoice/internal/config"
	"github.com/ent0n29/coachvoice/internal/httpapi"
	"github.com/ent0n29/coachvoice/internal/observability"
	"github.com/ent0n29/coachvoice/internal/session"
	"github.com/ent0n29/coachvoice/internal/webspeech"
)

type BuildResult struct {
	Config     config.Config
	API        *httpapi.Server
	Sessions   *session.Manager
	Voice      *webspeech.Service
	Dispatcher assistant.Dispatcher
	Metrics    *observability.Metrics

	// AssistantMode is the dispatcher actually in use: http or mock.
	AssistantMode string
}

func Build(cfg config.Config, logger *zap.Logger) (*BuildResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	dispatcher, err := assistant.NewDispatcher(assistant.Config{
		Mode:    cfg.AssistantMode,
		URL:     cfg.AssistantURL,
		Timeout: cfg.AssistantTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("assistant dispatcher init failed: %w", err)
	}
	mode := "http"
	if _, ok := dispatcher.(*assistant.MockDispatcher); ok {
		mode = "mock"
	}

	clk := clock.New()
	sessions := session.NewManager(clk, cfg.SessionInactivity)
	voiceService := webspeech.NewService(webspeech.Config{
		WelcomeText:     cfg.WelcomeText,
		DefaultLanguage: cfg.DefaultLanguage,
	}, dispatcher, metrics, clk, logger.Named("webspeech"))

	api := httpapi.New(cfg, sessions, voiceService, metrics, logger.Named("httpapi"))

	return &BuildResult{
		Config:        cfg,
		API:           api,
		Sessions:      sessions,
		Voice:         voiceService,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		AssistantMode: mode,
	}, nil
}
