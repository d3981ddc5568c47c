package llm

import (
	"encoding/json"
	"strings"
)

// DecodeResult records how a model response was turned into JSON. Repaired
// output is syntactically valid but only best-effort semantically, so the
// flag travels with the result and is surfaced on the stored analysis.
type DecodeResult struct {
	Repaired bool
}

// DecodeJSON parses a model response into dest: direct decode first, then
// with markdown code fences stripped, then after a structural repair pass
// for truncated output. Returns how the decode succeeded, or the original
// decode error when even repair fails.
func DecodeJSON(raw string, dest interface{}) (DecodeResult, error) {
	candidate := strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(candidate), dest); err == nil {
		return DecodeResult{}, nil
	}

	stripped := StripCodeFence(candidate)
	if err := json.Unmarshal([]byte(stripped), dest); err == nil {
		return DecodeResult{}, nil
	}

	repaired := RepairTruncated(stripped)
	err := json.Unmarshal([]byte(repaired), dest)
	if err == nil {
		return DecodeResult{Repaired: true}, nil
	}
	return DecodeResult{}, err
}

// StripCodeFence extracts the body of the first ``` fenced block, if any.
func StripCodeFence(raw string) string {
	idx := strings.Index(raw, "```")
	if idx < 0 {
		return raw
	}
	start := strings.Index(raw[idx:], "\n")
	if start < 0 {
		return raw
	}
	body := raw[idx+start+1:]
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// RepairTruncated attempts to close a truncated JSON document: when open
// bracket/brace counts exceed close counts it strips any trailing
// incomplete quoted string, drops a dangling comma or colon, and appends
// the missing closers in nesting order. Best effort only: the result can
// be semantically wrong while syntactically valid.
func RepairTruncated(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}

	var stack []byte
	inString := false
	escaped := false
	stringStart := -1
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
			stringStart = i
		case '{', '[':
			stack = append(stack, ch)
		case '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if len(stack) == 0 && !inString {
		return s
	}

	// Truncated inside a quoted string: drop the incomplete string.
	if inString && stringStart >= 0 {
		s = strings.TrimSpace(s[:stringStart])
	}
	// A dangling "key": with no value would make the closers invalid;
	// drop the key as well.
	s = strings.TrimRight(s, " \t\n")
	if strings.HasSuffix(s, ":") {
		s = strings.TrimRight(s[:len(s)-1], " \t\n")
		if strings.HasSuffix(s, "\"") {
			if open := lastStringStart(s); open >= 0 {
				s = s[:open]
			}
		}
	}
	// A trailing comma would also make the closers invalid.
	s = strings.TrimRight(s, ", \t\n")

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}

// lastStringStart finds the opening quote of a string that ends at the
// final character of s, accounting for escapes. Returns -1 when the tail
// is not a complete quoted string.
func lastStringStart(s string) int {
	if !strings.HasSuffix(s, "\"") {
		return -1
	}
	for i := len(s) - 2; i >= 0; i-- {
		if s[i] != '"' {
			continue
		}
		// Count preceding backslashes; an even count means unescaped.
		backslashes := 0
		for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
			backslashes++
		}
		if backslashes%2 == 0 {
			return i
		}
	}
	return -1
}
