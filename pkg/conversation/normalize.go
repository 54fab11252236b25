package conversation

import (
	"regexp"
	"strings"
)

// narrationPatterns match whole lines in which the agent narrates its own
// tool use rather than answering.
var narrationPatterns = []*regexp.Regexp{ //nolint:gochecknoglobals // compiled once
	regexp.MustCompile(`(?i)^\s*</?(function_calls|function_results|tool_use|tool_result|tool_call|invoke|parameter)\b[^>]*>.*$`),
	regexp.MustCompile(`(?i)^\s*\[(tool|tool call|tool result|using tool|calling|running)\b[^\]]*\]\s*$`),
	regexp.MustCompile(`(?i)^\s*(using|calling|running|invoking|executing)\s+(the\s+)?[\w.-]+\s+tool\b.*$`),
	regexp.MustCompile(`(?i)^\s*(let me|i'll|i will|i'm going to|now let me|first,? let me)\s+(check|look up|look into|search|fetch|pull|query|use|run|call|get)\b.*(\.\.\.|…|:)\s*$`),
	regexp.MustCompile(`(?i)^\s*(searching|fetching|checking|looking up|querying|analyzing)\b[^.!?]*(\.\.\.|…)\s*$`),
	regexp.MustCompile(`(?i)^\s*(action|action input|observation)\s*:.*$`),
}

// isNarration reports whether line is tool/process narration.
func isNarration(line string) bool {
	for _, re := range narrationPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// Normalize cleans a raw agent reply for display and speech: it drops
// tool-narration lines and collapses runs of identical consecutive lines
// (blank lines included). It has no side effects.
func Normalize(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	var out []string
	var prev string
	havePrev := false
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, " \t")
		if isNarration(line) {
			continue
		}
		key := strings.TrimSpace(line)
		if havePrev && key == prev {
			continue
		}
		prev, havePrev = key, true
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
