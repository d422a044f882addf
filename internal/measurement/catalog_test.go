package measurement

import "testing"

func TestExpand(t *testing.T) {
	tests := []struct {
		name      string
		selection TestSelection
		wantCount int
	}{
		{
			name:      "audio expands to media pair plus call control pair",
			selection: TestSelection{Issues: []string{IssueWebexAudio}},
			wantCount: 4,
		},
		{
			name:      "video expands to media pair plus call control pair",
			selection: TestSelection{Issues: []string{IssueWebexVideo}},
			wantCount: 4,
		},
		{
			name:      "audio and video keep duplicate call control probes",
			selection: TestSelection{Issues: []string{IssueWebexAudio, IssueWebexVideo}},
			wantCount: 8,
		},
		{
			name:      "salesforce is a single probe",
			selection: TestSelection{Issues: []string{IssueSalesforce}},
			wantCount: 1,
		},
		{
			name:      "office365 is a single probe",
			selection: TestSelection{Issues: []string{IssueOffice365}},
			wantCount: 1,
		},
		{
			name:      "custom url adds one probe",
			selection: TestSelection{Issues: []string{IssueSalesforce}, CustomURL: "https://example.com"},
			wantCount: 2,
		},
		{
			name:      "custom url alone",
			selection: TestSelection{CustomURL: "example.com"},
			wantCount: 1,
		},
		{
			name:      "unknown tags are ignored",
			selection: TestSelection{Issues: []string{"Zoom", IssueOffice365}},
			wantCount: 1,
		},
		{
			name:      "empty selection expands to nothing",
			selection: TestSelection{},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs := Expand(tt.selection)
			if len(defs) != tt.wantCount {
				t.Errorf("Expand() returned %d definitions, want %d", len(defs), tt.wantCount)
			}
		})
	}
}

func TestExpandCustomURLDefinition(t *testing.T) {
	defs := Expand(TestSelection{CustomURL: "https://internal.example.com"})
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}

	def := defs[0]
	if def.Kind != TestHTTPServer {
		t.Errorf("custom URL kind = %s, want %s", def.Kind, TestHTTPServer)
	}
	if def.Target != "https://internal.example.com" {
		t.Errorf("custom URL target = %s", def.Target)
	}
	if def.TargetResponseTime != 5000 {
		t.Errorf("custom URL targetResponseTime = %d, want 5000", def.TargetResponseTime)
	}
}

func TestTestName(t *testing.T) {
	tests := []struct {
		name string
		def  TestDefinition
		kind AgentKind
		want string
	}{
		{
			name: "endpoint http server",
			def:  TestDefinition{BaseName: "O365", Kind: TestHTTPServer},
			kind: AgentKindEndpoint,
			want: "O365 Endpoint Instant HTTP test",
		},
		{
			name: "endpoint agent to server drops the HTTP word",
			def:  TestDefinition{BaseName: "Webex Primary Audio", Kind: TestAgentToServer},
			kind: AgentKindEndpoint,
			want: "Webex Primary Audio Endpoint Instant Test",
		},
		{
			name: "enterprise http server",
			def:  TestDefinition{BaseName: "Salesforce", Kind: TestHTTPServer},
			kind: AgentKindEnterprise,
			want: "Salesforce Enterprise Instant HTTP test",
		},
		{
			name: "enterprise agent to server keeps the HTTP word",
			def:  TestDefinition{BaseName: "Webex Primary Audio", Kind: TestAgentToServer},
			kind: AgentKindEnterprise,
			want: "Webex Primary Audio Enterprise Instant HTTP test",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.def.TestName(tt.kind); got != tt.want {
				t.Errorf("TestName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectionValidate(t *testing.T) {
	if err := (TestSelection{}).Validate(); err != ErrEmptySelection {
		t.Errorf("empty selection: got %v, want ErrEmptySelection", err)
	}
	if err := (TestSelection{Issues: []string{IssueOffice365}}).Validate(); err != nil {
		t.Errorf("issue selection: unexpected error %v", err)
	}
	if err := (TestSelection{CustomURL: "example.com"}).Validate(); err != nil {
		t.Errorf("custom URL selection: unexpected error %v", err)
	}
}
