package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// HTTPMethod is an HTTP verb accepted in an API description.
type HTTPMethod string

// Supported HTTP methods.
const (
	MethodGet    HTTPMethod = "GET"
	MethodPost   HTTPMethod = "POST"
	MethodPut    HTTPMethod = "PUT"
	MethodDelete HTTPMethod = "DELETE"
	MethodPatch  HTTPMethod = "PATCH"
)

// IsValid returns true if the method is supported.
func (m HTTPMethod) IsValid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch:
		return true
	default:
		return false
	}
}

// APIInfo describes the endpoint a test suite targets.
// Values are only valid when built by NewAPIInfo.
type APIInfo struct {
	URL     string            `json:"url"`
	Method  HTTPMethod        `json:"method"`
	Headers map[string]string `json:"headers"`
}

// NewAPIInfo validates and normalises an API description.
// The URL must be absolute http(s) with a host and gains a trailing "/"
// when its path lacks one. The method is upper-cased before checking.
func NewAPIInfo(rawURL, method string, headers map[string]string) (APIInfo, error) {
	m := HTTPMethod(strings.ToUpper(strings.TrimSpace(method)))
	if !m.IsValid() {
		return APIInfo{}, fmt.Errorf("%w: unsupported method %q", ErrValidation, method)
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return APIInfo{}, fmt.Errorf("%w: malformed url %q: %v", ErrValidation, rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return APIInfo{}, fmt.Errorf("%w: url %q must use http or https", ErrValidation, rawURL)
	}
	if u.Host == "" {
		return APIInfo{}, fmt.Errorf("%w: url %q has no host", ErrValidation, rawURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}

	return APIInfo{URL: u.String(), Method: m, Headers: h}, nil
}
