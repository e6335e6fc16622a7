package webanalysis

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	directURLPattern = regexp.MustCompile(`https?://[^\s<>"']+`)
	bareDomainPattern = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)
)

// ExtractTargetURL finds the URL a prompt refers to. A direct http(s) URL
// anywhere in the prompt wins; a prompt that IS a bare domain ("stripe.com")
// gets a scheme prefixed and validated. Anything else yields no URL, so no
// external fetch happens for ordinary prompts.
func ExtractTargetURL(prompt string) (string, bool) {
	if match := directURLPattern.FindString(prompt); match != "" {
		match = strings.TrimRight(match, ".,;)")
		if _, err := url.ParseRequestURI(match); err == nil {
			return match, true
		}
	}

	candidate := strings.ToLower(strings.TrimSpace(prompt))
	if bareDomainPattern.MatchString(candidate) {
		normalized := "https://" + candidate
		if _, err := url.ParseRequestURI(normalized); err == nil {
			return normalized, true
		}
	}
	return "", false
}
