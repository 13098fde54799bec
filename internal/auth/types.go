package auth

import (
	"fmt"
)

// Claims holds the userinfo response, claim name to value
type Claims map[string]any

// Require returns ErrClaimMissing for the first name absent from the claims.
// A claim present with a null value counts as absent.
func (c Claims) Require(names ...string) error {
	for _, name := range names {
		if v, ok := c[name]; !ok || v == nil {
			return fmt.Errorf("%w: %s", ErrClaimMissing, name)
		}
	}
	return nil
}

// String returns the claim formatted as text, or "" if absent.
func (c Claims) String(name string) string {
	v, ok := c[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
