// Package jsonutil recovers JSON arrays from LLM responses that may be wrapped
// in markdown code fences, embedded in prose, or annotated with // comments.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when no recovery strategy could produce a valid JSON array.
var ErrNoJSON = fmt.Errorf("no valid JSON array found in response")

// fencedArrayPattern matches a ```json ... ``` (or bare ```) block containing an array.
var fencedArrayPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\[.*?\\])\\s*```")

// lineCommentPattern matches a // comment through end of line.
var lineCommentPattern = regexp.MustCompile(`(?m)//.*$`)

// recoveryStrategy attempts to extract a parseable JSON array from raw text.
// It returns the candidate substring and whether extraction applied at all.
type recoveryStrategy func(raw string) (string, bool)

// strategies are tried in order until one yields text that unmarshals cleanly.
var strategies = []recoveryStrategy{
	directText,
	fencedArray,
	bracketedArray,
}

// ParseArray parses a JSON array of T from raw LLM response text, applying the
// recovery strategies in order: direct parse, fenced code block extraction,
// then first-bracketed-array extraction with // comments stripped.
//
// On failure it returns ErrNoJSON; the caller holds the raw text for diagnosis.
func ParseArray[T any](raw string) ([]T, error) {
	for _, strategy := range strategies {
		candidate, ok := strategy(raw)
		if !ok {
			continue
		}
		var result []T
		if err := json.Unmarshal([]byte(candidate), &result); err == nil {
			return result, nil
		}
	}
	return nil, ErrNoJSON
}

// directText returns the trimmed raw text unchanged.
func directText(raw string) (string, bool) {
	return strings.TrimSpace(raw), true
}

// fencedArray extracts the first markdown-fenced block containing a JSON array.
func fencedArray(raw string) (string, bool) {
	matches := fencedArrayPattern.FindStringSubmatch(raw)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}

// bracketedArray extracts the first top-level bracketed array substring and
// strips // comments line-by-line before parsing.
func bracketedArray(raw string) (string, bool) {
	start := strings.Index(raw, "[")
	if start == -1 {
		return "", false
	}
	end := strings.LastIndex(raw, "]")
	if end <= start {
		return "", false
	}
	candidate := raw[start : end+1]
	return lineCommentPattern.ReplaceAllString(candidate, ""), true
}
