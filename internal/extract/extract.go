// Package extract turns raw bot responses into the short, single line strings
// written to the results table.
//
// Response bodies are only ever decoded as data (encoding/json, then json5),
// nothing received from the endpoint is evaluated.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"botprobe/lib/textutil"

	"github.com/titanous/json5"
)

// DefaultMaxLength is the bound applied to every reply cell.
const DefaultMaxLength = 300

// snippetLength bounds how much of a malformed body is quoted in a parse error marker.
const snippetLength = 120

// Class is the outcome class of a single request.
type Class int

const (
	Ok Class = iota
	HttpError
	NetworkError
	ParseError
)

func (c Class) String() string {
	switch c {
	case Ok:
		return "ok"
	case HttpError:
		return "http_error"
	case NetworkError:
		return "network_error"
	case ParseError:
		return "parse_error"
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// Extraction is the display string for a row along with how it was obtained.
type Extraction struct {
	// Reply is bounded for the results table.
	Reply string
	// Full is Reply before it was cut, line breaks are still flattened.
	Full  string
	Class Class
}

// newExtraction replaces line breaks with spaces and bounds the Reply to `maxLength` characters.
func newExtraction(text string, maxLength int, class Class) Extraction {
	full := textutil.Flatten(text)
	return Extraction{Reply: Truncate(full, maxLength), Full: full, Class: class}
}

// Truncate cuts `text` to at most `maxLength` characters (runes, not bytes).
func Truncate(text string, maxLength int) string {
	if maxLength <= 0 || utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLength])
}

// looksLikeJSON reports whether the body was meant to be a JSON document,
// as opposed to plain text that the endpoint returned instead.
func looksLikeJSON(body string) bool {
	if body == "" {
		return false
	}
	switch body[0] {
	case '{', '[', '"':
		return true
	}
	return false
}

// decode parses body strictly first and falls back to json5 (trailing commas,
// single quotes, comments), the returned error is always the strict one.
func decode(body string) (any, error) {
	var value any
	strictErr := json.Unmarshal([]byte(body), &value)
	if strictErr == nil {
		return value, nil
	}
	var lenient any
	if json5.Unmarshal([]byte(body), &lenient) == nil {
		return lenient, nil
	}
	return nil, strictErr
}

// Reply extracts the display string out of a successful (200) response body.
//
//   - a JSON object yields its `response` string field (empty if absent)
//   - a JSON string yields the string itself
//   - text that is not JSON falls back to the raw text
//   - text that looks like JSON but cannot be decoded yields a visible parse error marker
func Reply(body string, maxLength int) Extraction {
	trimmed := strings.TrimSpace(body)

	value, err := decode(trimmed)
	if err != nil {
		if looksLikeJSON(trimmed) {
			marker := fmt.Sprintf(
				"[parse error: %s] %s",
				err.Error(),
				Truncate(trimmed, snippetLength),
			)
			return newExtraction(marker, maxLength, ParseError)
		}
		return newExtraction(trimmed, maxLength, Ok)
	}

	switch v := value.(type) {
	case map[string]any:
		field, present := v["response"]
		if !present || field == nil {
			return Extraction{Reply: "", Class: Ok}
		}
		if text, ok := field.(string); ok {
			return newExtraction(text, maxLength, Ok)
		}
		encoded, err := json.Marshal(field)
		if err != nil {
			return newExtraction(trimmed, maxLength, Ok)
		}
		return newExtraction(string(encoded), maxLength, Ok)
	case string:
		return newExtraction(v, maxLength, Ok)
	default:
		return newExtraction(trimmed, maxLength, Ok)
	}
}
