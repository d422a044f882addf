package handlers

import (
	"context"
	"log/slog"

	"NetPulse/internal/bot/services"
	"NetPulse/internal/webex"
)

// ChatClient is the slice of the Webex API the webhook handlers consume.
type ChatClient interface {
	CreateMessage(ctx context.Context, msg webex.CreateMessage) error
	GetMessage(ctx context.Context, messageID string) (webex.Message, error)
	DeleteMessage(ctx context.Context, messageID string) error
	GetAttachmentAction(ctx context.Context, actionID string) (webex.AttachmentAction, error)
}

// TestRunner launches the measurement workflow for one agent branch.
type TestRunner interface {
	RunTests(ctx context.Context, req services.AgentRequest) error
}

type Handlers struct {
	chat     ChatClient
	tests    TestRunner
	botEmail string
	logger   *slog.Logger
}

func NewHandlers(chat ChatClient, tests TestRunner, botEmail string, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		chat:     chat,
		tests:    tests,
		botEmail: botEmail,
		logger:   logger,
	}
}
