package cache

import (
	"net/url"
	"sort"
	"strings"
)

// volatileParams never take part in a cache key. "t" is the cache-busting
// timestamp the random endpoint accepts.
var volatileParams = map[string]bool{
	"t":       true,
	"refresh": true,
}

// Key identifies a cached gateway response.
type Key struct {
	// Endpoint is the gateway path (e.g. "/books/latest/1")
	Endpoint string

	// QueryParams are the query parameters (e.g. {"days": "30"})
	QueryParams url.Values

	// Scope separates entries fetched with different credentials or base URLs.
	Scope string
}

// String generates a deterministic key.
// Format: rsywx[:scope]:endpoint:query1=val1:query2=val2
//
// Example:
//
//	rsywx:books/visit_history:days=30
func (k Key) String() string {
	parts := []string{"rsywx"}

	if k.Scope != "" {
		parts = append(parts, k.Scope)
	}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			if volatileParams[key] {
				continue
			}
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, key+"="+k.QueryParams.Get(key))
		}
	}

	return strings.Join(parts, ":")
}
