package client

import (
	"net/url"
)

// requestOptions tune a single call.
type requestOptions struct {
	noCache   bool
	query     url.Values
	extra     []string
	cacheable func(body []byte) bool
}

// RequestOption configures a single Get/GetJSON call.
type RequestOption func(*requestOptions)

// WithNoCache skips the response cache lookup. The fresh response is still
// stored so later cached reads see it.
func WithNoCache() RequestOption {
	return func(o *requestOptions) { o.noCache = true }
}

// WithQuery adds a query parameter.
func WithQuery(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = url.Values{}
		}
		o.query.Set(key, value)
	}
}

// WithEnvelopeMembers asks GetJSON to return sibling members of data
// (e.g. "period_info") in Meta.Extra.
func WithEnvelopeMembers(names ...string) RequestOption {
	return func(o *requestOptions) { o.extra = append(o.extra, names...) }
}

// withCacheCondition stores a 2xx response only when accept reports true for
// its body.
func withCacheCondition(accept func(body []byte) bool) RequestOption {
	return func(o *requestOptions) { o.cacheable = accept }
}

func buildOptions(opts []RequestOption) requestOptions {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
