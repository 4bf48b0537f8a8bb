package llm

import (
	"regexp"
	"strings"
)

var (
	fencedBlock   = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// ExtractJSON pulls a parseable JSON payload out of a raw LLM completion.
// Models routinely wrap JSON in markdown fences and leave trailing commas
// behind; this repairs both before the caller hands the string to
// encoding/json.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	s = trailingComma.ReplaceAllString(s, "$1")
	return s
}
