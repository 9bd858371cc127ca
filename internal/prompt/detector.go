package prompt

import (
	"strings"
)

// Trigger selects a specialized prompt template instead of the generic one.
type Trigger string

const (
	TriggerNone       Trigger = ""
	TriggerCodeReview Trigger = "code-review"
	TriggerFixCI      Trigger = "fix-ci"
	TriggerMinorFix   Trigger = "minor-fix"
)

// DetectTrigger tests the instruction text against the reserved trigger
// phrases, case-insensitively and substring-based. For minor-fix the second
// return value is the trimmed free text following the keyword, the literal
// user request; it is empty when nothing follows.
func DetectTrigger(text string) (Trigger, string) {
	lower := strings.ToLower(text)

	if strings.Contains(lower, string(TriggerCodeReview)) {
		return TriggerCodeReview, ""
	}
	if strings.Contains(lower, string(TriggerFixCI)) {
		return TriggerFixCI, ""
	}
	if idx := strings.Index(lower, string(TriggerMinorFix)); idx >= 0 {
		request := strings.TrimSpace(text[idx+len(TriggerMinorFix):])
		return TriggerMinorFix, request
	}

	return TriggerNone, ""
}
