// Package utils provides utility functions for the application.
package utils

import (
	"strconv"
	"strings"
)

func ToPtr[T any](v T) *T {
	return &v
}

func IsTrue(b *bool) bool {
	return b != nil && *b
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsEmailIdentifier reports whether a login identifier should be matched as an email
func IsEmailIdentifier(identifier string) bool {
	return strings.Contains(identifier, "@")
}

// ParseID parses a positive numeric path identifier
func ParseID(raw string) (uint, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "undefined" || raw == "null" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// ClampPage turns page/limit query values into a limit and offset
func ClampPage(page, limit int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}
