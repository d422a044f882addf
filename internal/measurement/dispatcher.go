package measurement

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc/pool"
)

// Wire payloads for test creation. Endpoint and enterprise agents take the
// same logical test in two different shapes.

type endpointHTTPRequest struct {
	AgentSelectorType  string   `json:"agentSelectorType"`
	AgentIDs           []string `json:"agentIds"`
	AuthType           string   `json:"authType"`
	FlagPing           bool     `json:"flagPing"`
	FlagTraceroute     bool     `json:"flagTraceroute"`
	HTTPTimeLimit      int      `json:"httpTimeLimit"`
	MaxMachines        int      `json:"maxMachines"`
	SSLVersion         int      `json:"sslVersion"`
	TargetResponseTime int      `json:"targetResponseTime"`
	TestName           string   `json:"testName"`
	URL                string   `json:"url"`
	VerifyCertHostname bool     `json:"verifyCertHostname"`
}

type endpointServerRequest struct {
	AgentSelectorType string   `json:"agentSelectorType"`
	AgentIDs          []string `json:"agentIds"`
	FlagPing          bool     `json:"flagPing"`
	FlagTraceroute    bool     `json:"flagTraceroute"`
	MaxMachines       int      `json:"maxMachines"`
	TestName          string   `json:"testName"`
	ServerName        string   `json:"serverName"`
	Port              int      `json:"port"`
}

type enterpriseAgentSelector struct {
	AgentID int64 `json:"agentId"`
}

type enterpriseHTTPRequest struct {
	Agents   []enterpriseAgentSelector `json:"agents"`
	TestName string                    `json:"testName"`
	URL      string                    `json:"url"`
}

type enterpriseServerRequest struct {
	Agents   []enterpriseAgentSelector `json:"agents"`
	TestName string                    `json:"testName"`
	Server   string                    `json:"server"`
	Interval int                       `json:"interval"`
}

// Dispatcher expands a selection through the catalog and creates every
// instant test concurrently.
type Dispatcher struct {
	client *Client
	logger *slog.Logger
}

func NewDispatcher(client *Client, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		client: client,
		logger: logger,
	}
}

// Dispatch creates one instant test per expanded definition. Calls run in a
// pool bounded by the expansion size; each task writes only its own slot, and
// a failed creation is captured in that slot instead of aborting the fan-out.
// The returned order follows the catalog expansion, not completion order, and
// callers must not rely on it.
func (d *Dispatcher) Dispatch(ctx context.Context, agent AgentRef, sel TestSelection) []LaunchResult {
	defs := Expand(sel)
	if len(defs) == 0 {
		return nil
	}

	results := make([]LaunchResult, len(defs))

	p := pool.New().WithMaxGoroutines(len(defs))
	for i, def := range defs {
		i, def := i, def
		p.Go(func() {
			raw, err := d.launch(ctx, agent, def)
			results[i] = LaunchResult{Definition: def, Raw: raw, Err: err}
			if err != nil {
				d.logger.Error("instant test creation failed",
					"test", def.TestName(agent.Kind),
					"target", def.Target,
					"error", err,
				)
			}
		})
	}
	p.Wait()

	return results
}

func (d *Dispatcher) launch(ctx context.Context, agent AgentRef, def TestDefinition) ([]byte, error) {
	path, payload := buildCreation(agent, def)

	d.logger.Debug("creating instant test",
		"test", def.TestName(agent.Kind),
		"kind", def.Kind,
		"agent_kind", agent.Kind,
	)

	return d.client.PostJSON(ctx, path, payload)
}

func buildCreation(agent AgentRef, def TestDefinition) (string, interface{}) {
	if agent.Kind == AgentKindEndpoint {
		if def.Kind == TestAgentToServer {
			return pathEndpointInstantAgentToServer, endpointServerRequest{
				AgentSelectorType: "SPECIFIC_AGENTS",
				AgentIDs:          []string{agent.ID},
				FlagPing:          true,
				FlagTraceroute:    true,
				MaxMachines:       5,
				TestName:          def.TestName(agent.Kind),
				ServerName:        def.Target,
				Port:              def.Port,
			}
		}
		return pathEndpointInstantHTTPServer, endpointHTTPRequest{
			AgentSelectorType:  "SPECIFIC_AGENTS",
			AgentIDs:           []string{agent.ID},
			AuthType:           "NONE",
			FlagPing:           true,
			FlagTraceroute:     true,
			HTTPTimeLimit:      5000,
			MaxMachines:        5,
			SSLVersion:         0,
			TargetResponseTime: def.TargetResponseTime,
			TestName:           def.TestName(agent.Kind),
			URL:                def.Target,
			VerifyCertHostname: true,
		}
	}

	selector := []enterpriseAgentSelector{{AgentID: agent.AgentID}}
	if def.Kind == TestAgentToServer {
		return pathInstantAgentToServer, enterpriseServerRequest{
			Agents:   selector,
			TestName: def.TestName(agent.Kind),
			Server:   def.Target,
			Interval: def.Interval,
		}
	}
	return pathInstantHTTPServer, enterpriseHTTPRequest{
		Agents:   selector,
		TestName: def.TestName(agent.Kind),
		URL:      def.Target,
	}
}
