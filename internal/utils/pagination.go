// Package utils provides small helpers shared by the HTTP and service
// layers: query-string paging and Turkish-aware slugs.
package utils

import "strconv"

// Page bounds for list endpoints.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// AtoiDefault converts s with strconv.Atoi, returning def when s is empty or
// not an integer.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ParsePage reads 1-based page and pageSize query values. Missing or invalid
// values fall back to page 1 and DefaultPageSize; pageSize is clamped to
// [1, MaxPageSize].
func ParsePage(pageStr, sizeStr string) (page, pageSize int) {
	page = AtoiDefault(pageStr, 1)
	if page < 1 {
		page = 1
	}
	pageSize = AtoiDefault(sizeStr, DefaultPageSize)
	switch {
	case pageSize < 1:
		pageSize = 1
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Offset is the number of rows skipped before page.
func Offset(page, pageSize int) int { return (page - 1) * pageSize }

// TotalPages is ceil(total / pageSize); zero rows means zero pages.
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
