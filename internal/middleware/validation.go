package middleware

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// Field length limits for request parameters.
const (
	MaxChannelIDLen = 64  // canonical ids are 24 chars, handles can be longer
	MaxLabelLen     = 128 // tracked_channels.label
	MaxNameLen      = 64  // brand and category filter values
)

// idRe matches YouTube ids and handles: alphanumeric, dash, underscore,
// dot and @ (handles arrive as "@name").
var idRe = regexp.MustCompile(`^[A-Za-z0-9@._-]+$`)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateChannelID checks that a channel id or handle is well-formed.
func ValidateChannelID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "channelId is required"
	}
	if len(id) > MaxChannelIDLen {
		return "", "channelId must be at most 64 characters"
	}
	if !idRe.MatchString(id) {
		return "", "channelId contains invalid characters"
	}
	return id, ""
}

// ValidateIdentifier checks a channel identifier from an enrollment
// request: a canonical id, an @handle or a custom URL name.
func ValidateIdentifier(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "identifier is required"
	}
	if len(id) > MaxChannelIDLen {
		return "", "identifier must be at most 64 characters"
	}
	if !idRe.MatchString(id) {
		return "", "identifier contains invalid characters"
	}
	return id, ""
}

// ValidateLabel bounds the optional tracked channel label.
func ValidateLabel(value string) (string, string) {
	value = strings.TrimSpace(value)
	if len(value) > MaxLabelLen {
		return "", "label must be at most 128 characters"
	}
	return value, ""
}

// ValidateName bounds a free-text filter value such as a brand or
// category name. Empty is fine; these filters are optional.
func ValidateName(field, value string) (string, string) {
	value = strings.TrimSpace(value)
	if len(value) > MaxNameLen {
		return "", field + " must be at most 64 characters"
	}
	return value, ""
}

// ParseTimeParam parses an optional time parameter, accepting RFC3339 or
// a bare date. A bare date means midnight UTC of that day.
func ParseTimeParam(field, value string) (*time.Time, string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ""
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, ""
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t, ""
	}
	return nil, field + " must be RFC3339 or YYYY-MM-DD"
}

// ParseLimit parses an optional limit parameter. Empty means the default;
// values above max are clamped rather than rejected.
func ParseLimit(value string, def, max int) (int, string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, ""
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, "limit must be a positive integer"
	}
	if n > max {
		return max, ""
	}
	return n, ""
}
