package completion

import "strings"

// The tables below are deliberately narrow, explicitly enumerated phrase
// lists. Widening them widens the false-positive surface of the soft
// signals, so additions belong here, reviewed, not in ad-hoc matching at
// call sites. All matching is case-insensitive substring containment.

// doneClaimPhrases are explicit claims that the whole project is finished.
// Phase-level claims ("sprint 1 complete") intentionally do not appear.
var doneClaimPhrases = []string{
	"project complete",
	"project is complete",
	"all tasks complete",
	"all tasks are complete",
	"no remaining work",
	"nothing left to do",
	"backlog is empty",
}

// completionIndicatorPhrases are weaker hints of overall completion that
// only count cumulatively.
var completionIndicatorPhrases = []string{
	"all tests passing",
	"all acceptance criteria met",
	"ready for release",
	"implementation is complete",
	"no outstanding issues",
}

// testActivityPhrases indicate the invocation ran or discussed tests.
var testActivityPhrases = []string{
	"go test",
	"npm test",
	"pytest",
	"running tests",
	"running the tests",
	"test suite",
	"tests pass",
	"tests passed",
	"tests are passing",
}

// implementationVerbs indicate the invocation did implementation work.
// Their presence disqualifies a loop from counting as test-only.
var implementationVerbs = []string{
	"implement",
	"refactor",
	"created",
	"added",
	"fixed",
	"wrote",
	"updated",
	"edited",
}

func containsAny(haystack string, phrases []string) bool {
	lower := strings.ToLower(haystack)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// matchFirst returns the first matching phrase, for signal audit notes.
func matchFirst(haystack string, phrases []string) (string, bool) {
	lower := strings.ToLower(haystack)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return p, true
		}
	}
	return "", false
}
