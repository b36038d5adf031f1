package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/apiforge/internal/core/domain"
)

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*[ \t]*\n?(.*?)```")

// ExtractJSON decodes the JSON in a model response into v. Fenced blocks
// are tried first, in order, then the whole text, then the span between
// the first opening and last closing bracket.
func ExtractJSON(text string, v any) error {
	var lastErr error
	for _, candidate := range jsonCandidates(text) {
		err := json.Unmarshal([]byte(candidate), v)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr == nil {
		return fmt.Errorf("%w: no json in response", domain.ErrParseFailure)
	}
	return fmt.Errorf("%w: %v", domain.ErrParseFailure, lastErr)
}

func jsonCandidates(text string) []string {
	var out []string
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		if body := strings.TrimSpace(m[1]); body != "" {
			out = append(out, body)
		}
	}

	trimmed := strings.TrimSpace(text)
	if trimmed != "" {
		out = append(out, trimmed)
	}

	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "}]")
	if start >= 0 && end > start {
		if span := text[start : end+1]; span != trimmed {
			out = append(out, span)
		}
	}
	return out
}

type apiDescription struct {
	Method   string         `json:"method"`
	URL      string         `json:"url"`
	Endpoint string         `json:"endpoint"`
	Headers  map[string]any `json:"headers"`
}

// ExtractAPIInfo finds the API description in a standardised response and
// validates it. The description is a JSON object with "method", "url" (or
// "endpoint") and optional "headers". The first candidate that validates
// wins, so example blocks in the prose before it are skipped. Missing
// structure wraps domain.ErrParseFailure; when every description is invalid
// the error of the last one wraps domain.ErrValidation.
func ExtractAPIInfo(text string) (domain.APIInfo, error) {
	var lastErr error
	for _, candidate := range jsonCandidates(text) {
		var d apiDescription
		if err := json.Unmarshal([]byte(candidate), &d); err != nil {
			continue
		}
		if d.URL == "" {
			d.URL = d.Endpoint
		}
		if d.Method == "" || d.URL == "" {
			continue
		}

		info, err := domain.NewAPIInfo(d.URL, d.Method, headerStrings(d.Headers))
		if err == nil {
			return info, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return domain.APIInfo{}, lastErr
	}
	return domain.APIInfo{}, fmt.Errorf("%w: no api description with method and url", domain.ErrParseFailure)
}

func headerStrings(in map[string]any) map[string]string {
	headers := make(map[string]string, len(in))
	for k, v := range in {
		if s, ok := v.(string); ok {
			headers[k] = s
		} else {
			headers[k] = fmt.Sprint(v)
		}
	}
	return headers
}

// ExtractTestCase returns the test case object in a generation response.
// An object is used as is; for an array the last element is taken.
func ExtractTestCase(text string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := ExtractJSON(text, &raw); err != nil {
		return nil, err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("%w: empty test case list", domain.ErrParseFailure)
		}
		raw = bytes.TrimSpace(items[len(items)-1])
	}

	if len(raw) == 0 || raw[0] != '{' {
		return nil, fmt.Errorf("%w: test case is not a json object", domain.ErrParseFailure)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
	}
	return json.RawMessage(compact.Bytes()), nil
}
