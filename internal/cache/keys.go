package cache

import (
	"strconv"
	"strings"
	"time"
)

// KeyProductSearch returns the cache key for a product name search.
func KeyProductSearch(name string, limit int) string {
	return "catalog:search:" + strings.ToLower(strings.TrimSpace(name)) + ":" + strconv.Itoa(limit)
}

// KeyReport returns the cache key for a report over [from, to).
func KeyReport(report string, from, to time.Time, extra ...string) string {
	var b strings.Builder
	b.WriteString("report:")
	b.WriteString(report)
	b.WriteString(":")
	b.WriteString(from.UTC().Format("20060102"))
	b.WriteString(":")
	b.WriteString(to.UTC().Format("20060102"))
	for _, e := range extra {
		b.WriteString(":")
		b.WriteString(e)
	}
	return b.String()
}
