package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/api/googleapi"
)

// FetchErrorKind splits API failures into the two classes the run loop
// cares about: transient failures are retried with backoff, fatal ones
// abort the run immediately.
type FetchErrorKind string

const (
	FetchTransient FetchErrorKind = "transient"
	FetchFatal     FetchErrorKind = "fatal"
)

// FetchError wraps a YouTube API failure with its classification and the
// operation that produced it.
type FetchError struct {
	Kind FetchErrorKind
	Op   string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ErrQuotaExhausted signals that the run budget cannot cover the next
// API call. It is not a failure: the run loop converts it into skipped
// items and a partial report.
var ErrQuotaExhausted = errors.New("api quota budget exhausted")

// quotaReasons are the googleapi 403 reasons that mean the project's
// daily quota is gone. Unlike rate limits these do not recover within a
// run, so they are fatal.
var quotaReasons = map[string]bool{
	"quotaExceeded":      true,
	"dailyLimitExceeded": true,
}

// rateLimitReasons recede after a pause and are retried.
var rateLimitReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// classifyFetchError decides whether an API error is worth retrying.
// Timeouts, connection drops, 429s and 5xx responses are transient.
// Auth failures, bad requests, missing resources and exhausted daily
// quota are fatal. Unknown errors default to fatal so that a broken
// deployment fails loudly instead of hammering the API.
func classifyFetchError(err error) FetchErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FetchTransient
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusForbidden:
			for _, item := range apiErr.Errors {
				if rateLimitReasons[item.Reason] {
					return FetchTransient
				}
				if quotaReasons[item.Reason] {
					return FetchFatal
				}
			}
			return FetchFatal
		case apiErr.Code == http.StatusTooManyRequests,
			apiErr.Code == http.StatusRequestTimeout,
			apiErr.Code >= 500:
			return FetchTransient
		default:
			return FetchFatal
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return FetchTransient
	}
	return FetchFatal
}

// retryAfterHint extracts a server-supplied wait from a rate-limit
// response, zero when absent.
func retryAfterHint(err error) time.Duration {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Header == nil {
		return 0
	}
	raw := apiErr.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	if secs, convErr := strconv.Atoi(raw); convErr == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// commentsDisabled reports the one 403 that is not a real failure:
// the channel turned comments off for a video.
func commentsDisabled(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusForbidden {
		return false
	}
	for _, item := range apiErr.Errors {
		if item.Reason == "commentsDisabled" {
			return true
		}
	}
	return false
}
