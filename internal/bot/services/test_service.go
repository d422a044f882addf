package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NetPulse/internal/measurement"
	"NetPulse/internal/scheduler"
	"NetPulse/internal/webex"
	"NetPulse/pkg/validator"
)

// MessageSender is the delivery sink: anything that can push a rendered
// message back into the chat room.
type MessageSender interface {
	CreateMessage(ctx context.Context, msg webex.CreateMessage) error
}

type TestService struct {
	resolver   *measurement.Resolver
	dispatcher *measurement.Dispatcher
	correlator *measurement.Correlator
	scheduler  *scheduler.Scheduler
	sender     MessageSender
	timeout    time.Duration
	logger     *slog.Logger
}

type TestServiceConfig struct {
	// DeliveryTimeout bounds the correlation fetches of one deferred
	// delivery job.
	DeliveryTimeout time.Duration
}

func NewTestService(
	resolver *measurement.Resolver,
	dispatcher *measurement.Dispatcher,
	correlator *measurement.Correlator,
	sched *scheduler.Scheduler,
	sender MessageSender,
	cfg TestServiceConfig,
	logger *slog.Logger,
) *TestService {
	timeout := cfg.DeliveryTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &TestService{
		resolver:   resolver,
		dispatcher: dispatcher,
		correlator: correlator,
		scheduler:  sched,
		sender:     sender,
		timeout:    timeout,
		logger:     logger,
	}
}

// AgentRequest is one agent branch of a card submission: which agent to test
// from, what to test, and where to report.
type AgentRequest struct {
	RoomID    string
	Kind      measurement.AgentKind
	Name      string
	Selection measurement.TestSelection
}

// RunTests resolves the agent, fans out the selected instant tests, and
// schedules one deferred result delivery per created test. Every path ends
// with a message to the room: a not-found notice, per-probe failure notices,
// or (later) one result or error card per probe.
func (s *TestService) RunTests(ctx context.Context, req AgentRequest) error {
	s.logger.Info("running instant tests",
		"kind", req.Kind,
		"agent", req.Name,
		"issues", req.Selection.Issues,
		"custom_url", req.Selection.CustomURL,
	)

	agent, err := s.resolver.Resolve(ctx, req.Kind, req.Name)
	if err != nil {
		if errors.Is(err, measurement.ErrAgentNotFound) {
			s.logger.Warn("agent not found", "kind", req.Kind, "name", req.Name)
			return s.sendText(ctx, req.RoomID, notFoundMessage(req.Kind))
		}
		return fmt.Errorf("failed to resolve agent: %w", err)
	}

	s.preflightCustomURL(req.Selection.CustomURL)

	launches := s.dispatcher.Dispatch(ctx, agent, req.Selection)

	scheduled := 0
	for _, launch := range launches {
		if launch.Err != nil {
			// One failed probe must not cost the others their results.
			s.logger.Error("probe creation failed, continuing with the rest",
				"test", launch.Definition.BaseName,
				"error", launch.Err,
			)
			message := fmt.Sprintf("**Error:**  \nCould not launch test '%s' for target: '%s'",
				launch.Definition.BaseName, req.Name)
			if err := s.sendMarkdown(ctx, req.RoomID, message); err != nil {
				s.logger.Error("failed to report probe failure", "error", err)
			}
			continue
		}

		raw := launch.Raw
		delay := measurement.DeliveryDelay(raw)
		jobID := s.scheduler.Schedule(delay, func() {
			s.deliver(raw, req.RoomID, req.Name)
		})

		s.logger.Info("result delivery scheduled",
			"job_id", jobID,
			"test", launch.Definition.BaseName,
			"delay", delay,
		)
		scheduled++
	}

	s.logger.Info("dispatch complete",
		"agent", req.Name,
		"launched", scheduled,
		"failed", len(launches)-scheduled,
	)
	return nil
}

// deliver runs as a deferred scheduler job, outside any request context.
func (s *TestService) deliver(raw []byte, roomID, targetLabel string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	record, err := s.correlator.Correlate(ctx, raw, targetLabel)
	if err != nil {
		s.logger.Warn("result correlation failed",
			"target", targetLabel,
			"error", err,
		)
		message := fmt.Sprintf(
			"**Error:**  \nUnable to parse test results from ThousandEyes API for target: '%s'\n\n**Results:**  \n```%s```",
			targetLabel, string(raw))
		if err := s.sendMarkdown(ctx, roomID, message); err != nil {
			s.logger.Error("failed to deliver correlation error", "error", err)
		}
		return
	}

	err = s.sender.CreateMessage(ctx, webex.CreateMessage{
		RoomID:      roomID,
		Text:        "ThousandEyes Webex Card Results",
		Attachments: []webex.Attachment{webex.ResultCard(record)},
	})
	if err != nil {
		s.logger.Error("failed to deliver result card",
			"target", targetLabel,
			"error", err,
		)
		return
	}

	s.logger.Info("result delivered", "target", targetLabel)
}

// preflightCustomURL sanity checks a user-supplied target. Warn-only: the
// measurement agents may resolve names the bot cannot.
func (s *TestService) preflightCustomURL(customURL string) {
	if customURL == "" {
		return
	}
	if !validator.ValidateTarget(customURL) {
		s.logger.Warn("custom URL looks malformed, dispatching anyway", "url", customURL)
		return
	}
	if !validator.Resolves(customURL, "") {
		s.logger.Warn("custom URL did not resolve from the bot, dispatching anyway", "url", customURL)
	}
}

func (s *TestService) sendText(ctx context.Context, roomID, text string) error {
	return s.sender.CreateMessage(ctx, webex.CreateMessage{RoomID: roomID, Text: text})
}

func (s *TestService) sendMarkdown(ctx context.Context, roomID, markdown string) error {
	return s.sender.CreateMessage(ctx, webex.CreateMessage{RoomID: roomID, Markdown: markdown})
}

func notFoundMessage(kind measurement.AgentKind) string {
	if kind == measurement.AgentKindEndpoint {
		return "Endpoint Agent Name not found, please double check the provided name."
	}
	return "Enterprise Agent Name not found, please double check the provided name."
}
