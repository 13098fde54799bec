package auth

import "errors"

var (
	// ErrTokenExchange is returned when the authorization code cannot be
	// exchanged for an access token: transport failure, non-2xx status,
	// unparsable body or missing access_token.
	ErrTokenExchange = errors.New("token exchange failed")

	// ErrUserInfoFetch is returned when the userinfo endpoint fails or
	// does not answer with a JSON object.
	ErrUserInfoFetch = errors.New("userinfo fetch failed")

	// ErrClaimMissing is returned when a claim needed for the report is absent.
	ErrClaimMissing = errors.New("claim missing")
)
