package handlers

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"NetPulse/internal/bot/services"
	"NetPulse/internal/measurement"
	"NetPulse/internal/webex"
	"NetPulse/pkg/validator"

	"github.com/gin-gonic/gin"
)

const (
	greetingInfo = "Hello from the ThousandEyes Chatbot!"

	redirectHint = `Hello! Please enter the "network-help" command to begin the troubleshooting workflow.`

	selectionRequired = "Please select an application to test (or provide your own URL)"

	agentRequired = "Please enter at least one of the following: Enterprise Agent Name, Endpoint Agent Hostname"

	requestReceived = "Your test request has been received. Test results will be returned in ~5 minutes"
)

var networkHelpPattern = regexp.MustCompile(`(?i)network-help`)

// webhookPayload is the envelope Webex posts for both message and
// attachment-action webhooks; only the data section matters here.
type webhookPayload struct {
	Data struct {
		ID          string `json:"id"`
		RoomID      string `json:"roomId"`
		MessageID   string `json:"messageId"`
		PersonEmail string `json:"personEmail"`
	} `json:"data"`
}

// MessageWebhook handles plain messages in the bot space: the network-help
// command returns the launch card, everything else a redirect hint. The
// bot's own echoed messages are filtered by sender email.
func (h *Handlers) MessageWebhook(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse("invalid_request", "Malformed webhook payload"))
		return
	}

	if payload.Data.PersonEmail == h.botEmail {
		c.JSON(http.StatusOK, SuccessResponse(greetingInfo))
		return
	}

	ctx := c.Request.Context()

	msg, err := h.chat.GetMessage(ctx, payload.Data.ID)
	if err != nil {
		h.logger.Error("failed to fetch webhook message", "error", err, "message_id", payload.Data.ID)
		c.JSON(http.StatusInternalServerError, ErrorResponse("fetch_failed", "Failed to fetch message"))
		return
	}

	h.logger.Info("message received",
		"room_id", msg.RoomID,
		"from", msg.PersonEmail,
	)

	reply := webex.CreateMessage{RoomID: msg.RoomID, Text: redirectHint}
	if networkHelpPattern.MatchString(msg.Text) {
		reply = webex.CreateMessage{
			RoomID:      msg.RoomID,
			Text:        "Let me help!",
			Attachments: []webex.Attachment{webex.LaunchCard()},
		}
	}

	if err := h.chat.CreateMessage(ctx, reply); err != nil {
		h.logger.Error("failed to reply", "error", err, "room_id", msg.RoomID)
		c.JSON(http.StatusInternalServerError, ErrorResponse("reply_failed", "Failed to send reply"))
		return
	}

	c.JSON(http.StatusOK, SuccessResponse(greetingInfo))
}

// CardWebhook handles the launch card's submit action: validate the inputs,
// acknowledge, then run the endpoint and/or enterprise test branches. The
// request blocks until every probe-creation call has settled; only result
// delivery is deferred.
func (h *Handlers) CardWebhook(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse("invalid_request", "Malformed webhook payload"))
		return
	}

	// Card submissions outlive an abandoned request: probes already being
	// created must run to completion.
	ctx := context.WithoutCancel(c.Request.Context())
	roomID := payload.Data.RoomID

	action, err := h.chat.GetAttachmentAction(ctx, payload.Data.ID)
	if err != nil {
		h.logger.Error("failed to fetch attachment action", "error", err, "action_id", payload.Data.ID)
		c.JSON(http.StatusInternalServerError, ErrorResponse("fetch_failed", "Failed to fetch card action"))
		return
	}

	if action.Inputs["action"] != "newTest" {
		c.JSON(http.StatusOK, SuccessResponse(greetingInfo))
		return
	}

	issueSelect := action.Inputs["IssueSelectVal"]
	customURL := action.Inputs["CustomURLVal"]
	hostname := action.Inputs["hostnameVal"]
	sitename := action.Inputs["sitenameVal"]

	if issueSelect == "" && customURL == "" {
		h.sendText(ctx, roomID, selectionRequired)
		c.JSON(http.StatusOK, SuccessResponse("Not quite... try another request!"))
		return
	}

	if hostname == "" && sitename == "" {
		h.sendText(ctx, roomID, agentRequired)
		c.JSON(http.StatusOK, SuccessResponse("Not quite... try another request!"))
		return
	}

	// Replace the submitted card with a plain acknowledgment.
	if err := h.chat.DeleteMessage(ctx, payload.Data.MessageID); err != nil {
		h.logger.Warn("failed to delete submitted card", "error", err, "message_id", payload.Data.MessageID)
	}
	h.sendText(ctx, roomID, requestReceived)

	selection := measurement.TestSelection{
		Issues:    h.splitIssues(issueSelect),
		CustomURL: customURL,
	}

	if hostname != "" {
		h.runBranch(ctx, services.AgentRequest{
			RoomID:    roomID,
			Kind:      measurement.AgentKindEndpoint,
			Name:      hostname,
			Selection: selection,
		})
	}

	if sitename != "" {
		h.runBranch(ctx, services.AgentRequest{
			RoomID:    roomID,
			Kind:      measurement.AgentKindEnterprise,
			Name:      sitename,
			Selection: selection,
		})
	}

	c.JSON(http.StatusOK, SuccessResponse(greetingInfo))
}

func (h *Handlers) runBranch(ctx context.Context, req services.AgentRequest) {
	h.logger.Info("starting test branch",
		"kind", req.Kind,
		"agent", req.Name,
		"issues", req.Selection.Issues,
	)
	if err := h.tests.RunTests(ctx, req); err != nil {
		h.logger.Error("test branch failed", "kind", req.Kind, "agent", req.Name, "error", err)
	}
}

func (h *Handlers) sendText(ctx context.Context, roomID, text string) {
	if err := h.chat.CreateMessage(ctx, webex.CreateMessage{RoomID: roomID, Text: text}); err != nil {
		h.logger.Error("failed to send message", "error", err, "room_id", roomID)
	}
}

func (h *Handlers) splitIssues(issueSelect string) []string {
	if issueSelect == "" {
		return nil
	}

	var issues []string
	for _, issue := range strings.Split(issueSelect, ",") {
		issue = strings.TrimSpace(issue)
		if issue == "" {
			continue
		}
		if !validator.ValidateIssueTag(issue) {
			h.logger.Warn("unknown issue tag in card submission", "tag", issue)
			continue
		}
		issues = append(issues, issue)
	}
	return issues
}
