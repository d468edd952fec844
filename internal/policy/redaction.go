package policy

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxLoggedRunes bounds how much user speech reaches the logs.
const maxLoggedRunes = 160

var transcriptRedactions = []struct {
	pattern *regexp.Regexp
	marker  string
}{
	{regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), "[email]"},
	// Cards go before phones so long digit runs are not taken for phone numbers.
	{regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`), "[card]"},
	{regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`), "[phone]"},
}

// RedactTranscript masks contact and payment details in user text before it is logged,
// and shortens long transcripts.
func RedactTranscript(input string) string {
	out := strings.TrimSpace(input)
	for _, r := range transcriptRedactions {
		out = r.pattern.ReplaceAllString(out, r.marker)
	}
	if utf8.RuneCountInString(out) <= maxLoggedRunes {
		return out
	}
	runes := []rune(out)
	return string(runes[:maxLoggedRunes]) + "..."
}
