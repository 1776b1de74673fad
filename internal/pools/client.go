package pools

import (
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"
)

const (
	defaultRetryCount    = 2
	defaultRetryWaitTime = 1 * time.Second
	defaultRetryMaxWait  = 5 * time.Second
)

// newHTTPClient builds a resty client with retry on transient upstream
// failures. The feeds here are public and rate-limited, so 429 and 5xx
// are everyday occurrences rather than hard errors.
func newHTTPClient(timeout time.Duration, userAgent string, logger zerolog.Logger) *resty.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(defaultRetryCount).
		SetRetryWaitTime(defaultRetryWaitTime).
		SetRetryMaxWaitTime(defaultRetryMaxWait).
		AddRetryConditions(retryCondition).
		AddRetryHooks(retryHook(logger))

	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	return client
}

func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	switch {
	case r.StatusCode() >= 500:
		return true
	case r.StatusCode() == 429:
		return true
	case r.StatusCode() == 408:
		return true
	}
	return false
}

func retryHook(logger zerolog.Logger) func(*resty.Response, error) {
	return func(r *resty.Response, err error) {
		ev := logger.Debug().Str("url", r.Request.URL).Int("attempt", r.Request.Attempt)
		if err != nil {
			ev.Err(err).Msg("retrying upstream request")
			return
		}
		ev.Int("status", r.StatusCode()).Msg("retrying upstream request")
	}
}
