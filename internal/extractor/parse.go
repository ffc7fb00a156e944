package extractor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"incident-report-go/internal/types"
)

var errNoJSON = errors.New("no JSON object found in model output")

// ParseError means the model answered but not with a usable report.
type ParseError struct {
	Raw      string
	Attempts int
	Err      error
}

func (e *ParseError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("invalid JSON output after %d attempt(s): %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("invalid JSON output: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseReport pulls the first JSON object out of raw and decodes it.
// Absent or null fields become types.NotSpecified; scalar values of any JSON
// type are kept as text and never checked against the closed sets.
func ParseReport(raw string) (types.IncidentReport, error) {
	obj := extractJSON(raw)
	if obj == "" {
		return types.IncidentReport{}, &ParseError{Raw: raw, Err: errNoJSON}
	}

	dec := json.NewDecoder(strings.NewReader(obj))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return types.IncidentReport{}, &ParseError{Raw: raw, Err: err}
	}

	r := types.IncidentReport{
		PNR:        text(fields["PNR"]),
		Issue:      text(fields["issue"]),
		IssueType:  text(fields["issueType"]),
		Location:   text(fields["location"]),
		Urgency:    text(fields["urgency"]),
		Suggestion: text(fields["suggestion"]),
		Sentiment:  text(fields["sentiment"]),
	}
	return r.Normalize(), nil
}

// text renders one decoded JSON value as a report field.
func text(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		var b bytes.Buffer
		enc := json.NewEncoder(&b)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return fmt.Sprint(v)
		}
		return strings.TrimSpace(b.String())
	}
}

// extractJSON finds the first balanced JSON object in a string and returns it.
// Surrounding markdown fences are dropped; backticks inside values are kept.
func extractJSON(s string) string {
	s = trimFences(strings.ReplaceAll(s, "\r\n", "\n"))
	if s == "" {
		return ""
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	// no balanced found
	return ""
}

// trimFences removes a leading ```json (or bare ```) line and a trailing ```.
func trimFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimLeft(s, "`")
		}
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
