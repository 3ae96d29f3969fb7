package util

import (
	"regexp"
	"strings"
)

var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?(.*?)```")

// ExtractJSONFromText pulls the JSON payload out of a model reply, which may
// wrap it in a markdown code block or surround it with prose.
func ExtractJSONFromText(text string) string {
	// Prefer an explicit markdown code block
	if matches := codeBlockRe.FindStringSubmatch(text); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	// Otherwise take the widest brace/bracket span
	start := earliestIndex(strings.Index(text, "{"), strings.Index(text, "["))
	if start == -1 {
		return text
	}
	end := latestIndex(strings.LastIndex(text, "}"), strings.LastIndex(text, "]"))
	if end > start {
		return text[start : end+1]
	}
	return text
}

func earliestIndex(a, b int) int {
	if a == -1 {
		return b
	}
	if b == -1 {
		return a
	}
	if a < b {
		return a
	}
	return b
}

func latestIndex(a, b int) int {
	if a > b {
		return a
	}
	return b
}
