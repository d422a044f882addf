package measurement

import (
	"errors"
	"math"
	"strconv"
)

type AgentKind string

const (
	AgentKindEndpoint   AgentKind = "endpoint"
	AgentKindEnterprise AgentKind = "enterprise"
)

// AgentRef identifies one resolved measurement agent. Endpoint agents carry a
// GUID, enterprise agents a numeric ID; the wire payloads differ accordingly.
type AgentRef struct {
	Kind AgentKind
	// ID is the endpoint agent GUID. Empty for enterprise agents.
	ID string
	// AgentID is the enterprise agent numeric ID. Zero for endpoint agents.
	AgentID int64
}

// TestSelection is what the user submitted: zero or more issue tags plus an
// optional custom URL.
type TestSelection struct {
	Issues    []string
	CustomURL string
}

var ErrEmptySelection = errors.New("no application or custom URL selected")

func (s TestSelection) Validate() error {
	if len(s.Issues) == 0 && s.CustomURL == "" {
		return ErrEmptySelection
	}
	return nil
}

type TestKind string

const (
	TestHTTPServer    TestKind = "http-server"
	TestAgentToServer TestKind = "agent-to-server"
)

// TestDefinition is one catalog entry: a single instant test against a fixed
// target. The same definition produces different request payloads per agent
// kind.
type TestDefinition struct {
	BaseName string
	Kind     TestKind
	// Target is the URL for http-server tests and the server hostname for
	// agent-to-server tests.
	Target string
	// Port applies to endpoint agent-to-server tests only.
	Port int
	// Interval applies to enterprise agent-to-server tests only.
	Interval int
	// TargetResponseTime applies to endpoint http-server tests only.
	TargetResponseTime int
}

// TestName renders the name sent to the measurement API. Endpoint
// agent-to-server tests drop the "HTTP" word; every other combination keeps
// it, matching the established test names in the ThousandEyes account.
func (d TestDefinition) TestName(kind AgentKind) string {
	if kind == AgentKindEndpoint {
		if d.Kind == TestAgentToServer {
			return d.BaseName + " Endpoint Instant Test"
		}
		return d.BaseName + " Endpoint Instant HTTP test"
	}
	return d.BaseName + " Enterprise Instant HTTP test"
}

// LaunchResult is the outcome of one test-creation call. Either Raw holds the
// creation response body or Err holds the per-call failure; one probe failing
// never discards the others.
type LaunchResult struct {
	Definition TestDefinition
	Raw        []byte
	Err        error
}

// NotApplicable marks a Record field that the test family does not produce.
const NotApplicable = "N/A"

// Record is the normalized result of one instant test. Every field is always
// populated, either with a formatted value or with NotApplicable, so
// rendering never has to branch on missing data.
type Record struct {
	CreatedDate       string
	TargetLabel       string
	TestTargetURL     string
	StatusMessage     string
	ResponseCode      string
	TotalResponseTime string
	Loss              string
	AvgLatency        string
	Jitter            string
	CPUUtilization    string
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatCPU converts a 0..1 mean utilization into a percentage rounded to two
// decimals.
func formatCPU(mean float64) string {
	return formatFloat(math.Round(mean*100*100) / 100)
}
