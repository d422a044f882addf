package webex

import (
	"encoding/json"
	"fmt"

	"NetPulse/internal/measurement"
)

const cardContentType = "application/vnd.microsoft.card.adaptive"

const adaptiveCardSchema = "http://adaptivecards.io/schemas/adaptive-card.json"

// launchCardJSON is the test-launch form: agent name inputs, the application
// multiselect, and the custom URL field. Input IDs are the wire contract with
// the card-action handler.
const launchCardJSON = `{
  "$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
  "type": "AdaptiveCard",
  "version": "1.2",
  "body": [
    {
      "type": "TextBlock",
      "size": "Large",
      "weight": "Bolder",
      "text": "ThousandEyes Instant Test(s)",
      "horizontalAlignment": "Center",
      "color": "Light"
    },
    {
      "type": "Input.Text",
      "placeholder": "Enterprise Agent Name (case-sensitive)",
      "style": "text",
      "maxLength": 0,
      "id": "sitenameVal"
    },
    {
      "type": "Input.Text",
      "placeholder": "Endpoint Agent Device Hostname (case-sensitive)",
      "style": "text",
      "maxLength": 0,
      "id": "hostnameVal"
    },
    {
      "type": "TextBlock",
      "text": "Which applications are experiencing issue? (multiselect)"
    },
    {
      "type": "Input.ChoiceSet",
      "id": "IssueSelectVal",
      "isMultiSelect": true,
      "choices": [
        {"title": "Office 365", "value": "Office365"},
        {"title": "Webex Audio", "value": "WebexAudio"},
        {"title": "Webex Video", "value": "WebexVideo"},
        {"title": "SalesForce", "value": "salesforce"}
      ]
    },
    {
      "type": "TextBlock",
      "text": "Custom URL (if None of the above selected)"
    },
    {
      "type": "Input.Text",
      "placeholder": "What's the url of the application?",
      "style": "text",
      "maxLength": 0,
      "id": "CustomURLVal"
    }
  ],
  "actions": [
    {
      "type": "Action.Submit",
      "title": "Submit",
      "data": {"action": "newTest", "id": "inputTypesExample"}
    }
  ]
}`

// LaunchCard returns the test-launch form as a message attachment.
func LaunchCard() Attachment {
	return Attachment{
		ContentType: cardContentType,
		Content:     json.RawMessage(launchCardJSON),
	}
}

type adaptiveCard struct {
	Schema  string        `json:"$schema"`
	Type    string        `json:"type"`
	Version string        `json:"version"`
	Body    []interface{} `json:"body"`
}

type textBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Weight   string `json:"weight,omitempty"`
	Size     string `json:"size,omitempty"`
	Spacing  string `json:"spacing,omitempty"`
	IsSubtle bool   `json:"isSubtle,omitempty"`
	Wrap     bool   `json:"wrap,omitempty"`
}

type factSet struct {
	Type  string `json:"type"`
	Facts []fact `json:"facts"`
}

type fact struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// ResultCard renders a normalized result record as an adaptive card. Field
// order and unit suffixes are part of the card contract: created date, agent
// label, test target, status line, then the fact list.
func ResultCard(record measurement.Record) Attachment {
	content := adaptiveCard{
		Schema:  adaptiveCardSchema,
		Type:    "AdaptiveCard",
		Version: "1.2",
		Body: []interface{}{
			textBlock{Type: "TextBlock", Text: "ThousandEyes Test Result", Weight: "Bolder", Size: "Medium"},
			textBlock{Type: "TextBlock", Text: fmt.Sprintf("Created %s", record.CreatedDate), Spacing: "None", IsSubtle: true, Wrap: true},
			textBlock{Type: "TextBlock", Text: fmt.Sprintf("Agent: %s", record.TargetLabel), Weight: "Bolder", Wrap: true},
			textBlock{Type: "TextBlock", Text: fmt.Sprintf("Test Target: %s", record.TestTargetURL), Weight: "Bolder", Wrap: true},
			textBlock{Type: "TextBlock", Text: record.StatusMessage, Wrap: true},
			factSet{
				Type: "FactSet",
				Facts: []fact{
					{Title: "Response:", Value: record.ResponseCode},
					{Title: "Total Response Time:", Value: fmt.Sprintf("%s ms", record.TotalResponseTime)},
					{Title: "Loss:", Value: fmt.Sprintf("%s %%", record.Loss)},
					{Title: "Average Latency:", Value: fmt.Sprintf("%s ms", record.AvgLatency)},
					{Title: "Jitter:", Value: fmt.Sprintf("%s ms", record.Jitter)},
					{Title: "Average CPU Usage:", Value: fmt.Sprintf("%s %%", record.CPUUtilization)},
				},
			},
		},
	}

	return Attachment{
		ContentType: cardContentType,
		Content:     content,
	}
}
