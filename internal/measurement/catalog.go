package measurement

// Fixed probe targets. Adding an application means adding a constant and a
// catalog entry below; the catalog is deliberately not runtime-configurable.
const (
	PrimaryCBServerURL     = "https://ed1sgcb191.webex.com"
	SecondaryCBServerURL   = "https://epycb16302.webex.com"
	WebexPrimaryAudioURL   = "msg2mcs136.webex.com"
	WebexSecondaryAudioURL = "gmjp2mcs192.webex.com"
	WebexPrimaryVideoURL   = "msg2mcs136.webex.com"
	WebexSecondaryVideoURL = "gmjp2mcs192.webex.com"
	SalesforceURL          = "https://ciscosales.my.salesforce.com/"
	O365URL                = "https://login.microsoftonline.com"
)

// Issue tags as they arrive from the selection card.
const (
	IssueWebexAudio = "WebexAudio"
	IssueWebexVideo = "WebexVideo"
	IssueSalesforce = "salesforce"
	IssueOffice365  = "Office365"
)

const mediaPort = 5004

var (
	defPrimaryCBServer = TestDefinition{
		BaseName:           "WebEx Primary CB Server",
		Kind:               TestHTTPServer,
		Target:             PrimaryCBServerURL,
		TargetResponseTime: 1000,
	}
	defSecondaryCBServer = TestDefinition{
		BaseName:           "WebEx Secondary CB Server",
		Kind:               TestHTTPServer,
		Target:             SecondaryCBServerURL,
		TargetResponseTime: 1000,
	}
	defPrimaryAudio = TestDefinition{
		BaseName: "Webex Primary Audio",
		Kind:     TestAgentToServer,
		Target:   WebexPrimaryAudioURL,
		Port:     mediaPort,
		Interval: 900,
	}
	defSecondaryAudio = TestDefinition{
		BaseName: "Webex Secondary Audio",
		Kind:     TestAgentToServer,
		Target:   WebexSecondaryAudioURL,
		Port:     mediaPort,
		Interval: 900,
	}
	defPrimaryVideo = TestDefinition{
		BaseName: "Webex Primary Video",
		Kind:     TestAgentToServer,
		Target:   WebexPrimaryVideoURL,
		Port:     mediaPort,
		Interval: 900,
	}
	defSecondaryVideo = TestDefinition{
		BaseName: "Webex Secondary Video",
		Kind:     TestAgentToServer,
		Target:   WebexSecondaryVideoURL,
		Port:     mediaPort,
		Interval: 900,
	}
	defSalesforce = TestDefinition{
		BaseName:           "Salesforce",
		Kind:               TestHTTPServer,
		Target:             SalesforceURL,
		TargetResponseTime: 5000,
	}
	defOffice365 = TestDefinition{
		BaseName:           "O365",
		Kind:               TestHTTPServer,
		Target:             O365URL,
		TargetResponseTime: 1000,
	}
)

// Expand maps the user's selection onto concrete test definitions. A single
// user-visible symptom can implicate several infrastructure paths, so one tag
// may expand into multiple probes, and overlapping tags are NOT de-duplicated
// (two media tags each carry their own pair of call-control probes). Unknown
// tags are ignored.
func Expand(sel TestSelection) []TestDefinition {
	var defs []TestDefinition

	for _, issue := range sel.Issues {
		switch issue {
		case IssueWebexAudio:
			defs = append(defs,
				defPrimaryAudio,
				defSecondaryAudio,
				defPrimaryCBServer,
				defSecondaryCBServer,
			)
		case IssueWebexVideo:
			defs = append(defs,
				defPrimaryVideo,
				defSecondaryVideo,
				defPrimaryCBServer,
				defSecondaryCBServer,
			)
		case IssueSalesforce:
			defs = append(defs, defSalesforce)
		case IssueOffice365:
			defs = append(defs, defOffice365)
		}
	}

	if sel.CustomURL != "" {
		defs = append(defs, TestDefinition{
			BaseName:           "Custom URL",
			Kind:               TestHTTPServer,
			Target:             sel.CustomURL,
			TargetResponseTime: 5000,
		})
	}

	return defs
}
