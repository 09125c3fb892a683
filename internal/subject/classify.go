// Package subject guesses a subject label from free event text.
package subject

import (
	"regexp"
	"strings"
)

// Other is the fallback label when no rule matches.
const Other = "Other"

// Labels lists every subject the classifier can produce, in rule order,
// plus the fallback. Used by clients to populate subject pickers.
var Labels = []string{
	"Spanish", "Maths", "Swedish", "English", "Art",
	"Drama", "I+S", "Science", "Design", "PE", Other,
}

// rule pairs a predicate with the label it yields. Rules are evaluated in
// order and the first match wins: Spanish precedes the generic substring
// rules so that e.g. "Spanish maths vocabulary" is not claimed by Maths.
type rule struct {
	label string
	match func(text string) bool
}

func contains(substrings ...string) func(string) bool {
	return func(text string) bool {
		for _, s := range substrings {
			if strings.Contains(text, s) {
				return true
			}
		}
		return false
	}
}

// wordBound anchors short tokens on word boundaries so that "art" does not
// match inside "smart" and "pe" does not match inside "open".
func wordBound(token string) func(string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(token) + `\b`)
	return re.MatchString
}

func anyOf(preds ...func(string) bool) func(string) bool {
	return func(text string) bool {
		for _, p := range preds {
			if p(text) {
				return true
			}
		}
		return false
	}
}

var rules = []rule{
	{"Spanish", contains("spanish", "espanol", "español")},
	{"Maths", contains("math")},
	{"Swedish", contains("swedish", "svenska")},
	{"English", contains("english")},
	{"Art", wordBound("art")},
	{"Drama", contains("drama", "theatre")},
	{"I+S", contains("individuals", "societies", "i&s", "history", "geography")},
	{"Science", contains("science", "physics", "chem", "bio")},
	{"Design", contains("design")},
	{"PE", anyOf(wordBound("pe"), contains("phys ed", "sport"))},
}

// Classify returns the subject label for the given free text. It is
// deterministic and case-insensitive; unmatched text yields Other.
func Classify(text string) string {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if r.match(lower) {
			return r.label
		}
	}
	return Other
}
