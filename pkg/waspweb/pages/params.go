// Package pages assembles the data behind the site's list and detail pages:
// developer pages, the stats leaderboard, the sitemap and package versions.
// Assemblers parse raw query parameters, run their queries concurrently and
// reshape the rows for rendering.
package pages

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var uuidV4 = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// IsUUIDv4 reports whether s is a version 4 UUID in canonical form.
func IsUUIDv4(s string) bool {
	return uuidV4.MatchString(s)
}

// ParsePage parses the 1-based page query parameter. Missing, non-numeric
// and values below 1 all select the first page.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Range is the half-open row window [Start, Finish) of a page.
type Range struct {
	Start  int
	Finish int
}

// NewRange returns the window of page for the given page size. Pages past
// the last window that fits in 32 bits are clamped to it.
func NewRange(page, size int) Range {
	if page < 1 {
		page = 1
	}
	if size > 0 {
		if last := math.MaxInt32 / size; page > last {
			page = last
		}
	}
	start := (page - 1) * size
	return Range{Start: start, Finish: start + size}
}

// Limit is the number of rows in the window.
func (r Range) Limit() int {
	return r.Finish - r.Start
}

// ParseSearch URI-decodes and trims a search parameter. Input that does not
// decode is used as is.
func ParseSearch(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	return strings.TrimSpace(decoded)
}

// EncodeSEO turns a title into the URL path segment used by the site.
func EncodeSEO(s string) string {
	return url.PathEscape(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
}
