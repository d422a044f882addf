package measurement

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newCorrelatorFixture serves canned second-stage resources by path and
// returns a correlator pointed at them plus the server base URL for building
// apiLinks hrefs.
func newCorrelatorFixture(t *testing.T, responses map[string]string) (*Correlator, string) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{BaseURL: server.URL, Token: "test-token"}, nil)
	return NewCorrelator(client, nil), server.URL
}

const endpointDetailBody = `{
  "endpointWeb": {
    "endpointTest": {"createdDate": "2026-09-01 10:15:00", "server": "login.microsoftonline.com:443"},
    "httpServer": [{"responseCode": %d, "totalTime": 123.4, "systemMetrics": {"cpuUtilization": {"mean": 0.4567}}}]
  }
}`

const endpointMetricsBody = `{
  "endpointNet": {
    "endpointTest": {"createdDate": "2026-09-01 10:15:00", "server": "msg2mcs136.webex.com:5004"},
    "metrics": [{"loss": 0, "avgLatency": 12.5, "jitter": 1.25, "systemMetrics": {"cpuUtilization": {"mean": 0.25}}}]
  }
}`

const enterpriseDetailBody = `{
  "web": {
    "test": {"createdDate": "2026-09-01 10:15:00", "url": "https://ciscosales.my.salesforce.com/"},
    "httpServer": [{"responseCode": %d, "totalTime": 321.9}]
  }
}`

const enterpriseMetricsBody = `{
  "net": {
    "test": {"createdDate": "2026-09-01 10:15:00", "server": "msg2mcs136.webex.com"},
    "metrics": [{"loss": 1.5, "avgLatency": 20.25, "jitter": 3.5}]
  }
}`

func endpointHTTPCreation(base string) []byte {
	return []byte(fmt.Sprintf(`{"endpointTest":[{"interval":60,"apiLinks":[
		{"href":"%[1]s/endpoint-instant/123"},
		{"href":"%[1]s/endpoint-data/tests/web/http-server/123"},
		{"href":"%[1]s/endpoint-data/tests/net/metrics/123"}]}]}`, base))
}

func enterpriseHTTPCreation(base string) []byte {
	return []byte(fmt.Sprintf(`{"test":[{"apiLinks":[
		{"href":"%[1]s/instant/456"},
		{"href":"%[1]s/web/http-server/456"},
		{"href":"%[1]s/net/metrics/456"}]}]}`, base))
}

func endpointServerCreation(base string) []byte {
	return []byte(fmt.Sprintf(`{"endpointTest":[{"interval":60,"apiLinks":[
		{"href":"%[1]s/endpoint-instant/789"},
		{"href":"%[1]s/endpoint-data/tests/net/metrics/789"}]}]}`, base))
}

func enterpriseServerCreation(base string) []byte {
	return []byte(fmt.Sprintf(`{"test":[{"apiLinks":[
		{"href":"%[1]s/instant/790"},
		{"href":"%[1]s/net/metrics/790"}]}]}`, base))
}

func TestCorrelateEndpointHTTPServerHealthy(t *testing.T) {
	c, base := newCorrelatorFixture(t, map[string]string{
		"/endpoint-data/tests/web/http-server/123": fmt.Sprintf(endpointDetailBody, 200),
		"/endpoint-data/tests/net/metrics/123":     endpointMetricsBody,
	})

	record, err := c.Correlate(context.Background(), endpointHTTPCreation(base), "LAPTOP-001")
	if err != nil {
		t.Fatalf("Correlate() error = %v", err)
	}

	want := Record{
		CreatedDate:       "2026-09-01 10:15:00",
		TargetLabel:       "LAPTOP-001",
		TestTargetURL:     "login.microsoftonline.com:443",
		StatusMessage:     "Everything seems normal at office, try rebooting your PC.",
		ResponseCode:      "200",
		TotalResponseTime: "123.4",
		Loss:              "0",
		AvgLatency:        "12.5",
		Jitter:            "1.25",
		CPUUtilization:    "45.67",
	}
	if record != want {
		t.Errorf("Correlate() = %+v, want %+v", record, want)
	}
}

func TestCorrelateEndpointHTTPServerUnhealthy(t *testing.T) {
	c, base := newCorrelatorFixture(t, map[string]string{
		"/endpoint-data/tests/web/http-server/123": fmt.Sprintf(endpointDetailBody, 503),
		"/endpoint-data/tests/net/metrics/123":     endpointMetricsBody,
	})

	record, err := c.Correlate(context.Background(), endpointHTTPCreation(base), "LAPTOP-001")
	if err != nil {
		t.Fatalf("Correlate() error = %v", err)
	}

	if record.StatusMessage != statusEndpointNetIssue {
		t.Errorf("status = %q", record.StatusMessage)
	}
	if record.ResponseCode != "503" {
		t.Errorf("responseCode = %q, want 503", record.ResponseCode)
	}
	if record.TotalResponseTime != NotApplicable {
		t.Errorf("totalResponseTime = %q, want N/A", record.TotalResponseTime)
	}
	// The created date is dropped for unhealthy endpoint responses, yet host
	// CPU stays populated.
	if record.CreatedDate != NotApplicable {
		t.Errorf("createdDate = %q, want N/A", record.CreatedDate)
	}
	if record.CPUUtilization != "45.67" {
		t.Errorf("cpuUtilization = %q, want 45.67", record.CPUUtilization)
	}
}

func TestCorrelateEnterpriseHTTPServerUnhealthy(t *testing.T) {
	c, base := newCorrelatorFixture(t, map[string]string{
		"/web/http-server/456": fmt.Sprintf(enterpriseDetailBody, 500),
		"/net/metrics/456":     enterpriseMetricsBody,
	})

	record, err := c.Correlate(context.Background(), enterpriseHTTPCreation(base), "SJC-Branch")
	if err != nil {
		t.Fatalf("Correlate() error = %v", err)
	}

	if record.StatusMessage != statusEnterpriseNetIssue {
		t.Errorf("status = %q", record.StatusMessage)
	}
	// Enterprise keeps the created date even when the probe failed, and
	// never reports CPU.
	if record.CreatedDate != "2026-09-01 10:15:00" {
		t.Errorf("createdDate = %q", record.CreatedDate)
	}
	if record.CPUUtilization != NotApplicable {
		t.Errorf("cpuUtilization = %q, want N/A", record.CPUUtilization)
	}
	if record.TestTargetURL != "https://ciscosales.my.salesforce.com/" {
		t.Errorf("testTargetURL = %q", record.TestTargetURL)
	}
	if record.Loss != "1.5" || record.AvgLatency != "20.25" || record.Jitter != "3.5" {
		t.Errorf("path metrics = %q/%q/%q", record.Loss, record.AvgLatency, record.Jitter)
	}
}

func TestCorrelateEndpointAgentToServer(t *testing.T) {
	c, base := newCorrelatorFixture(t, map[string]string{
		"/endpoint-data/tests/net/metrics/789": endpointMetricsBody,
	})

	record, err := c.Correlate(context.Background(), endpointServerCreation(base), "LAPTOP-001")
	if err != nil {
		t.Fatalf("Correlate() error = %v", err)
	}

	if record.StatusMessage != "Agent-to-server Test" {
		t.Errorf("status = %q", record.StatusMessage)
	}
	if record.ResponseCode != NotApplicable {
		t.Errorf("responseCode = %q, want N/A", record.ResponseCode)
	}
	if record.TotalResponseTime != NotApplicable {
		t.Errorf("totalResponseTime = %q, want N/A", record.TotalResponseTime)
	}
	if record.TestTargetURL != "msg2mcs136.webex.com:5004" {
		t.Errorf("testTargetURL = %q", record.TestTargetURL)
	}
	if record.CPUUtilization != "25" {
		t.Errorf("cpuUtilization = %q, want 25", record.CPUUtilization)
	}
}

func TestCorrelateEnterpriseAgentToServer(t *testing.T) {
	c, base := newCorrelatorFixture(t, map[string]string{
		"/net/metrics/790": enterpriseMetricsBody,
	})

	record, err := c.Correlate(context.Background(), enterpriseServerCreation(base), "SJC-Branch")
	if err != nil {
		t.Fatalf("Correlate() error = %v", err)
	}

	if record.CPUUtilization != NotApplicable {
		t.Errorf("cpuUtilization = %q, want N/A", record.CPUUtilization)
	}
	if record.Loss != "1.5" {
		t.Errorf("loss = %q, want 1.5", record.Loss)
	}
}

func TestCorrelatePathMetricsGating(t *testing.T) {
	tests := []struct {
		name        string
		metricsBody string
		wantLoss    string
		wantLatency string
		wantJitter  string
	}{
		{
			name:        "missing loss blanks every path metric",
			metricsBody: `{"net":{"test":{"createdDate":"d","server":"s"},"metrics":[{"avgLatency":20}]}}`,
			wantLoss:    NotApplicable,
			wantLatency: NotApplicable,
			wantJitter:  NotApplicable,
		},
		{
			name:        "loss without jitter keeps only loss",
			metricsBody: `{"net":{"test":{"createdDate":"d","server":"s"},"metrics":[{"loss":2.5,"avgLatency":20}]}}`,
			wantLoss:    "2.5",
			wantLatency: NotApplicable,
			wantJitter:  NotApplicable,
		},
		{
			name:        "empty metrics list",
			metricsBody: `{"net":{"test":{"createdDate":"d","server":"s"},"metrics":[]}}`,
			wantLoss:    NotApplicable,
			wantLatency: NotApplicable,
			wantJitter:  NotApplicable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, base := newCorrelatorFixture(t, map[string]string{
				"/net/metrics/790": tt.metricsBody,
			})

			record, err := c.Correlate(context.Background(), enterpriseServerCreation(base), "SJC-Branch")
			if err != nil {
				t.Fatalf("Correlate() error = %v", err)
			}

			if record.Loss != tt.wantLoss {
				t.Errorf("loss = %q, want %q", record.Loss, tt.wantLoss)
			}
			if record.AvgLatency != tt.wantLatency {
				t.Errorf("avgLatency = %q, want %q", record.AvgLatency, tt.wantLatency)
			}
			if record.Jitter != tt.wantJitter {
				t.Errorf("jitter = %q, want %q", record.Jitter, tt.wantJitter)
			}
		})
	}
}

func TestCorrelateUnparseable(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `<html>backend error</html>`},
		{name: "empty endpoint test section", raw: `{"endpointTest":[]}`},
		{name: "empty enterprise test section", raw: `{"test":[]}`},
		{name: "failed creation without test key", raw: `{"errorMessage":"no agents available"}`},
		{name: "too few api links", raw: `{"test":[{"apiLinks":[{"href":"x"}]}]}`},
	}

	c, _ := newCorrelatorFixture(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Correlate(context.Background(), []byte(tt.raw), "label")
			if !errors.Is(err, ErrUnparseable) {
				t.Errorf("Correlate() error = %v, want ErrUnparseable", err)
			}
		})
	}
}

func TestCorrelateEmptyHTTPServerSection(t *testing.T) {
	c, base := newCorrelatorFixture(t, map[string]string{
		"/web/http-server/456": `{"web":{"test":{"createdDate":"d","url":"u"},"httpServer":[]}}`,
		"/net/metrics/456":     enterpriseMetricsBody,
	})

	_, err := c.Correlate(context.Background(), enterpriseHTTPCreation(base), "SJC-Branch")
	if !errors.Is(err, ErrUnparseable) {
		t.Errorf("Correlate() error = %v, want ErrUnparseable", err)
	}
}

func TestCorrelateFetchFailure(t *testing.T) {
	c, base := newCorrelatorFixture(t, nil) // every fetch 404s

	_, err := c.Correlate(context.Background(), enterpriseServerCreation(base), "SJC-Branch")
	if err == nil {
		t.Fatal("expected an error when the metrics fetch fails")
	}
	if errors.Is(err, ErrUnparseable) {
		t.Error("transport failure should not be reported as unparseable")
	}
}
