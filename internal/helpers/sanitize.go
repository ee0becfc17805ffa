package helpers

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()
)

// SanitizeText strips every tag. Used for titles, locations and categories.
func SanitizeText(input string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(input))
}

// SanitizeHTML keeps basic formatting and drops scripts, handlers and styles.
func SanitizeHTML(input string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(input))
}
