package client

import (
	"net/http"
	"net/url"
)

// RequestInfo describes the inbound HTTP request on whose behalf a token is
// being acquired. URI is the request URL without its query string; Params
// holds the query (and form) parameters. The server-side flow reads code,
// state and error from Params and bookmarks URI/Params before redirecting.
type RequestInfo struct {
	URI    string
	Params url.Values
}

// RequestFromHTTP captures RequestInfo from a request. Form parameters are
// merged with query parameters when the body has already been parsed.
func RequestFromHTTP(r *http.Request) RequestInfo {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	params := url.Values{}
	for k, vs := range r.URL.Query() {
		params[k] = vs
	}
	for k, vs := range r.PostForm {
		params[k] = vs
	}

	return RequestInfo{
		URI:    scheme + "://" + r.Host + r.URL.Path,
		Params: params,
	}
}
