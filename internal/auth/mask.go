package auth

// MaskSecret masks a credential for logging by keeping the first 3 and last 4
// characters. Values of 8 characters or fewer become "***".
func MaskSecret(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:3] + "***" + secret[len(secret)-4:]
}
