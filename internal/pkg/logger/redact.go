package logger

// RedactToken masks a credential for safe logging, keeping a short prefix so
// entries from the same key remain correlatable.
// "sk_live_abcdef123456" → "sk_liv***"
// Short values (≤6 chars) are fully masked.
func RedactToken(token string) string {
	if len(token) > 6 {
		return token[:6] + "***"
	}
	return "***"
}
