package provider

import (
	"errors"
	"net/http"

	"github.com/openai/openai-go"
)

// ErrThrottled marks errors caused by rate limiting or a backend reporting overload.
var ErrThrottled = errors.New("throttled")

// statusOverloaded is returned by Anthropic endpoints under load.
const statusOverloaded = 529

// IsThrottled reports whether err is worth retrying after a pause.
func IsThrottled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrThrottled) {
		return true
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return IsThrottledStatus(apiErr.StatusCode)
	}
	return false
}

// IsThrottledStatus reports whether an HTTP status code signals throttling.
func IsThrottledStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, statusOverloaded:
		return true
	default:
		return false
	}
}
