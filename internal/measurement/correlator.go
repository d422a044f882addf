package measurement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// ErrUnparseable reports a result payload whose shape matched no known
// response family, or a test that failed server-side and produced no test
// section.
var ErrUnparseable = errors.New("unable to parse test results")

const (
	statusNormal             = "Everything seems normal at office, try rebooting your PC."
	statusEndpointNetIssue   = "Unfortunately it looks like your endpoint is having network issues with this application. Please call the help desk."
	statusEnterpriseNetIssue = "Unfortunately it looks like your site is having network issues with this application. Please call the help desk."
	statusAgentToServer      = "Agent-to-server Test"
)

// Correlator turns a raw creation response into a normalized Record by
// fetching and merging the second-stage result resources.
type Correlator struct {
	client *Client
	logger *slog.Logger
}

func NewCorrelator(client *Client, logger *slog.Logger) *Correlator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Correlator{
		client: client,
		logger: logger,
	}
}

// Correlate resolves one creation response into a Record. The second apiLinks
// entry decides the test shape: an href without "metrics" in it means an
// http-server test carrying both an HTTP-detail resource and a metrics
// resource; otherwise only a metrics resource exists (agent-to-server test).
// Structural mismatches of any kind come back as ErrUnparseable.
func (c *Correlator) Correlate(ctx context.Context, raw []byte, targetLabel string) (Record, error) {
	family, creation, err := parseCreation(raw)
	if err != nil {
		return Record{}, err
	}

	if len(creation.APILinks) < 2 {
		return Record{}, ErrUnparseable
	}

	record := Record{TargetLabel: targetLabel}

	var metrics netSection
	if !strings.Contains(creation.APILinks[1].Href, "metrics") {
		metrics, err = c.correlateHTTPServer(ctx, family, creation, &record)
	} else {
		metrics, err = c.correlateAgentToServer(ctx, family, creation, &record)
	}
	if err != nil {
		return Record{}, err
	}

	fillPathMetrics(&record, metrics)
	return record, nil
}

func (c *Correlator) correlateHTTPServer(ctx context.Context, family resultFamily, creation creationTest, record *Record) (netSection, error) {
	if len(creation.APILinks) < 3 {
		return netSection{}, ErrUnparseable
	}

	detailRaw, err := c.client.FetchLink(ctx, creation.APILinks[1].Href)
	if err != nil {
		return netSection{}, fmt.Errorf("failed to fetch http detail: %w", err)
	}
	metricsRaw, err := c.client.FetchLink(ctx, creation.APILinks[2].Href)
	if err != nil {
		return netSection{}, fmt.Errorf("failed to fetch metrics: %w", err)
	}

	detail, err := decodeDetail(family, detailRaw)
	if err != nil || len(detail.HTTPServer) == 0 {
		return netSection{}, ErrUnparseable
	}
	metrics, err := decodeMetrics(family, metricsRaw)
	if err != nil {
		return netSection{}, ErrUnparseable
	}

	server := detail.HTTPServer[0]
	record.ResponseCode = strconv.Itoa(server.ResponseCode)

	if family == familyEndpoint {
		// Endpoint detail payloads include host CPU readings; a non-200
		// response also drops the created date, unlike the enterprise
		// family below. Observed behavior, kept as is.
		record.CPUUtilization = formatCPU(server.SystemMetrics.CPUUtilization.Mean)
		record.TestTargetURL = detail.Test.Server
		if server.ResponseCode == 200 {
			record.StatusMessage = statusNormal
			record.TotalResponseTime = formatFloat(server.TotalTime)
			record.CreatedDate = detail.Test.CreatedDate
		} else {
			record.StatusMessage = statusEndpointNetIssue
			record.TotalResponseTime = NotApplicable
			record.CreatedDate = NotApplicable
		}
	} else {
		record.CPUUtilization = NotApplicable
		record.TestTargetURL = detail.Test.URL
		record.CreatedDate = detail.Test.CreatedDate
		if server.ResponseCode == 200 {
			record.StatusMessage = statusNormal
			record.TotalResponseTime = formatFloat(server.TotalTime)
		} else {
			record.StatusMessage = statusEnterpriseNetIssue
			record.TotalResponseTime = NotApplicable
		}
	}

	return metrics, nil
}

func (c *Correlator) correlateAgentToServer(ctx context.Context, family resultFamily, creation creationTest, record *Record) (netSection, error) {
	metricsRaw, err := c.client.FetchLink(ctx, creation.APILinks[1].Href)
	if err != nil {
		return netSection{}, fmt.Errorf("failed to fetch metrics: %w", err)
	}

	metrics, err := decodeMetrics(family, metricsRaw)
	if err != nil {
		return netSection{}, ErrUnparseable
	}

	record.StatusMessage = statusAgentToServer
	record.ResponseCode = NotApplicable
	record.TotalResponseTime = NotApplicable
	record.CreatedDate = metrics.Test.CreatedDate
	record.TestTargetURL = metrics.Test.Server

	if family == familyEndpoint {
		if len(metrics.Metrics) == 0 {
			return netSection{}, ErrUnparseable
		}
		record.CPUUtilization = formatCPU(metrics.Metrics[0].SystemMetrics.CPUUtilization.Mean)
	} else {
		record.CPUUtilization = NotApplicable
	}

	return metrics, nil
}

// fillPathMetrics extracts loss, latency, and jitter from the first metric
// entry. Latency and jitter only exist when loss does, and jitter gates both.
func fillPathMetrics(record *Record, metrics netSection) {
	record.Loss = NotApplicable
	record.AvgLatency = NotApplicable
	record.Jitter = NotApplicable

	if len(metrics.Metrics) == 0 {
		return
	}

	entry := metrics.Metrics[0]
	if entry.Loss == nil {
		return
	}

	record.Loss = formatFloat(*entry.Loss)
	if entry.Jitter != nil {
		record.AvgLatency = formatFloat(entry.AvgLatency)
		record.Jitter = formatFloat(*entry.Jitter)
	}
}
