package validator

func ValidateIssueTag(tag string) bool {
	validTags := map[string]bool{
		"Office365":  true,
		"WebexAudio": true,
		"WebexVideo": true,
		"salesforce": true,
	}
	return validTags[tag]
}
