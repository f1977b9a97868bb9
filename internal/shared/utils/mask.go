package utils

// MaskSecret keeps the first and last two characters of a secret.
// Example: "S3cr3tValue" -> "S3***ue"
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 6 {
		return "***"
	}
	return secret[:2] + "***" + secret[len(secret)-2:]
}
