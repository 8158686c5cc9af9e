package worker

import "strings"

// rateLimitPhrases identify rate-limit-shaped output. The list is an
// explicit, enumerated table; widen it only deliberately.
var rateLimitPhrases = []string{
	"rate limit",
	"rate-limit",
	"too many requests",
	"429",
	"quota exceeded",
	"usage limit reached",
	"overloaded_error",
}

// looksRateLimited reports whether output matches a known throttling shape.
func looksRateLimited(output string) bool {
	lower := strings.ToLower(output)
	for _, p := range rateLimitPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
