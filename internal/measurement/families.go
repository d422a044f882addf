package measurement

import (
	"encoding/json"
	"time"
)

// The measurement API returns the same logical data under two naming
// families: endpoint responses prefix their sections (endpointTest,
// endpointWeb, endpointNet) while enterprise responses do not (test, web,
// net). Each family gets its own tagged decode types here; everything past
// decoding is shared.

type resultFamily int

const (
	familyEndpoint resultFamily = iota
	familyEnterprise
)

type apiLink struct {
	Href string `json:"href"`
}

type creationTest struct {
	Interval int       `json:"interval"`
	APILinks []apiLink `json:"apiLinks"`
}

type endpointCreation struct {
	Tests []creationTest `json:"endpointTest"`
}

type enterpriseCreation struct {
	Tests []creationTest `json:"test"`
}

// detectFamily inspects a creation response: presence of the endpointTest key
// selects the endpoint family, anything else is treated as enterprise.
func detectFamily(raw []byte) (resultFamily, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return familyEnterprise, err
	}
	if _, ok := probe["endpointTest"]; ok {
		return familyEndpoint, nil
	}
	return familyEnterprise, nil
}

// parseCreation decodes the family-specific creation envelope down to the
// single test entry it carries. An absent or empty test section means the
// test failed server-side.
func parseCreation(raw []byte) (resultFamily, creationTest, error) {
	family, err := detectFamily(raw)
	if err != nil {
		return family, creationTest{}, ErrUnparseable
	}

	switch family {
	case familyEndpoint:
		var creation endpointCreation
		if err := json.Unmarshal(raw, &creation); err != nil || len(creation.Tests) == 0 {
			return family, creationTest{}, ErrUnparseable
		}
		return family, creation.Tests[0], nil
	default:
		var creation enterpriseCreation
		if err := json.Unmarshal(raw, &creation); err != nil || len(creation.Tests) == 0 {
			return family, creationTest{}, ErrUnparseable
		}
		return family, creation.Tests[0], nil
	}
}

const (
	// endpointDeliveryBuffer gives the measurement backend time to finish
	// writing detail data after the reported test interval elapses.
	endpointDeliveryBuffer = 10 * time.Second
	// enterpriseDeliveryDelay is a fixed buffer; enterprise creation
	// responses do not report an interval.
	enterpriseDeliveryDelay = 70 * time.Second
)

// DeliveryDelay computes how long to wait before fetching results for a
// creation response. Unreadable responses fall back to the enterprise delay;
// correlation will classify them properly when the job fires.
func DeliveryDelay(raw []byte) time.Duration {
	family, test, err := parseCreation(raw)
	if err != nil || family != familyEndpoint {
		return enterpriseDeliveryDelay
	}
	return time.Duration(test.Interval)*time.Second + endpointDeliveryBuffer
}

// Shared detail/metrics shapes, reached through the family envelopes below.

type testInfo struct {
	CreatedDate string `json:"createdDate"`
	Server      string `json:"server"`
	URL         string `json:"url"`
}

type systemMetrics struct {
	CPUUtilization struct {
		Mean float64 `json:"mean"`
	} `json:"cpuUtilization"`
}

type httpServerEntry struct {
	ResponseCode  int           `json:"responseCode"`
	TotalTime     float64       `json:"totalTime"`
	SystemMetrics systemMetrics `json:"systemMetrics"`
}

// netMetricEntry uses pointers where the correlation rules depend on key
// presence, not on zero values.
type netMetricEntry struct {
	Loss          *float64      `json:"loss"`
	AvgLatency    float64       `json:"avgLatency"`
	Jitter        *float64      `json:"jitter"`
	SystemMetrics systemMetrics `json:"systemMetrics"`
}

type webSection struct {
	HTTPServer []httpServerEntry
	Test       testInfo
}

type netSection struct {
	Test    testInfo
	Metrics []netMetricEntry
}

type endpointDetail struct {
	Web struct {
		HTTPServer []httpServerEntry `json:"httpServer"`
		Test       testInfo          `json:"endpointTest"`
	} `json:"endpointWeb"`
}

type enterpriseDetail struct {
	Web struct {
		HTTPServer []httpServerEntry `json:"httpServer"`
		Test       testInfo          `json:"test"`
	} `json:"web"`
}

type endpointMetricsEnvelope struct {
	Net struct {
		Test    testInfo         `json:"endpointTest"`
		Metrics []netMetricEntry `json:"metrics"`
	} `json:"endpointNet"`
}

type enterpriseMetricsEnvelope struct {
	Net struct {
		Test    testInfo         `json:"test"`
		Metrics []netMetricEntry `json:"metrics"`
	} `json:"net"`
}

func decodeDetail(family resultFamily, raw []byte) (webSection, error) {
	if family == familyEndpoint {
		var detail endpointDetail
		if err := json.Unmarshal(raw, &detail); err != nil {
			return webSection{}, err
		}
		return webSection{HTTPServer: detail.Web.HTTPServer, Test: detail.Web.Test}, nil
	}

	var detail enterpriseDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return webSection{}, err
	}
	return webSection{HTTPServer: detail.Web.HTTPServer, Test: detail.Web.Test}, nil
}

func decodeMetrics(family resultFamily, raw []byte) (netSection, error) {
	if family == familyEndpoint {
		var envelope endpointMetricsEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return netSection{}, err
		}
		return netSection{Test: envelope.Net.Test, Metrics: envelope.Net.Metrics}, nil
	}

	var envelope enterpriseMetricsEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return netSection{}, err
	}
	return netSection{Test: envelope.Net.Test, Metrics: envelope.Net.Metrics}, nil
}
