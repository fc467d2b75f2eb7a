// detector/detector.go

// Package detector implements heuristic scanning for prompt-injection and
// jailbreak payloads. It is pattern matching, not a formal parser: false
// positives fail toward caution, false negatives are an accepted residual
// risk.
package detector

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// suspiciousPatterns may indicate prompt injection or jailbreak attempts.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`ignore\s+previous\s+instructions`),
	regexp.MustCompile(`disregard\s+safety`),
	regexp.MustCompile(`developer\s+mode`),
	regexp.MustCompile(`\bdan\b`), // "Do Anything Now" jailbreak
	regexp.MustCompile(`bypass`),
	regexp.MustCompile(`disable\s+guardrails`),
	regexp.MustCompile(`base64\s*[,:]`),
	regexp.MustCompile("‮"), // right-to-left override
	regexp.MustCompile(`system\s*[:=]\s*`),
	regexp.MustCompile(`assistant\s*[:=]\s*`),
	regexp.MustCompile(`user\s*[:=]\s*`),
	regexp.MustCompile(`<\|[a-z_]+\|>`), // token-boundary injection
	regexp.MustCompile(`\[inst\]`),      // Llama instruction injection
	regexp.MustCompile(`\{inst\}`),      // variant instruction injection
}

// jailbreakIndicators are plain substrings checked by DetectJailbreak.
var jailbreakIndicators = []string{
	"pretend you are",
	"act as if",
	"roleplay as",
	"ignore all previous",
	"override",
	"break out of",
	"jailbreak",
	"hack",
}

// longInputThreshold is the length beyond which repeated encoding markers
// get flagged even without an exact pattern match.
const longInputThreshold = 1000

// Normalize strips control characters (preserving newlines and tabs) and
// lowercases.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// LooksMalicious scans the serialized payload against the signature library.
func LooksMalicious(payload map[string]interface{}) bool {
	blob := Normalize(serialize(payload))

	for _, pattern := range suspiciousPatterns {
		if pattern.MatchString(blob) {
			return true
		}
	}

	// Long inputs with repeated encoding markers are suspicious even
	// without an exact pattern match.
	if len(blob) > longInputThreshold && strings.Count(blob, "base64") > 2 {
		return true
	}

	return false
}

// DetectJailbreak checks free text for common jailbreak phrasings.
func DetectJailbreak(text string) bool {
	normalized := Normalize(text)
	for _, indicator := range jailbreakIndicators {
		if strings.Contains(normalized, indicator) {
			return true
		}
	}
	return false
}

// serialize renders a payload deterministically for scanning. Map keys are
// sorted so the scan does not depend on iteration order.
func serialize(v interface{}) string {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString("{")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			b.WriteString(serialize(t[k]))
		}
		b.WriteString("}")
		return b.String()
	case []interface{}:
		var b strings.Builder
		b.WriteString("[")
		for i, item := range t {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(serialize(item))
		}
		b.WriteString("]")
		return b.String()
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
