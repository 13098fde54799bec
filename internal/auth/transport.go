package auth

import "net/http"

// acceptJSONTransport asks the identity provider for JSON on every request
// that does not already state a preference.
type acceptJSONTransport struct {
	base http.RoundTripper
}

func (t *acceptJSONTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept") != "" {
		return t.base.RoundTrip(req)
	}
	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())
	r.Header.Set("Accept", "application/json")
	return t.base.RoundTrip(r)
}
