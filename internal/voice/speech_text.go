package voice

import (
	"regexp"
	"strings"
)

// PauseToken is understood by speech engines as a short silence.
const PauseToken = "..."

var (
	speechMarkdownLinkPattern  = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)
	speechHTMLTagPattern       = regexp.MustCompile(`<[^>]*>`)
	speechURLPattern           = regexp.MustCompile(`(?i)[ \t]*https?://(?:\S*[^\s.,;:!?)])?`)
	speechSentencePausePattern = regexp.MustCompile(`(^|[^.])\.[ \t]+(?:\.\.\.[ \t]*)?`)
	speechColonPausePattern    = regexp.MustCompile(`:[ \t]+(?:\.\.\.[ \t]*)?`)
	speechLineBreakPattern     = regexp.MustCompile(`[ \t]*\r?\n`)
	speechListPrefixPattern    = regexp.MustCompile(`(?m)^[ \t]*(?:\d+[.)]|[•\-–][.)]?)[ \t]+(?:\.\.\.[ \t]*)?`)
	speechRepeatedPausePattern = regexp.MustCompile(` \.\.\.(?: \.\.\.)+`)
	speechLeadingPausePattern  = regexp.MustCompile(`^(?:\.\.\.\s*)+`)
	speechTrailingPausePattern = regexp.MustCompile(`\s+\.\.\.$`)
	speechSourcesPattern       = regexp.MustCompile(`(?is)sources:.*$`)

	speechMarkdownMarkers = strings.NewReplacer("*", "", "_", "", "~", "", "`", "", "#", "")
)

// SanitizeSpeechText turns assistant text into something a speech engine can read aloud.
// It never fails; an empty result means there is nothing worth speaking.
func SanitizeSpeechText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	out := stripPictographs(raw)

	out = speechMarkdownLinkPattern.ReplaceAllString(out, "$1")
	out = speechMarkdownMarkers.Replace(out)
	out = speechHTMLTagPattern.ReplaceAllString(out, "")

	// Trailing sentence punctuation stays so the pause after a url survives.
	out = speechURLPattern.ReplaceAllString(out, "")

	// The line break keeps its newline so list prefixes are still at a line start.
	out = speechSentencePausePattern.ReplaceAllString(out, "${1}. "+PauseToken+" ")
	out = speechColonPausePattern.ReplaceAllString(out, ": "+PauseToken+" ")
	out = speechLineBreakPattern.ReplaceAllString(out, " "+PauseToken+"\n")

	out = speechListPrefixPattern.ReplaceAllString(out, "")

	out = strings.Join(strings.Fields(out), " ")
	out = speechRepeatedPausePattern.ReplaceAllString(out, " "+PauseToken)
	out = speechLeadingPausePattern.ReplaceAllString(out, "")

	out = speechSourcesPattern.ReplaceAllString(out, "")
	out = strings.TrimSpace(out)
	out = speechTrailingPausePattern.ReplaceAllString(out, "")

	return strings.TrimSpace(out)
}

func stripPictographs(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if isPictograph(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isPictograph(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
		// Emoticons, pictographs, transport, flags and the supplemental blocks.
		return true
	case r >= 0x2600 && r <= 0x27BF:
		// Miscellaneous symbols and dingbats.
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return true
	case r == '\u200d' || r == '\ufe0f' || r == '\u20e3':
		return true
	default:
		return false
	}
}
