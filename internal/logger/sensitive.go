package logger

import (
	"regexp"
	"strings"
)

// sensitiveDataPatterns match credentials that can show up in DSNs, endpoints and config dumps.
var sensitiveDataPatterns = []*regexp.Regexp{
	// user:password@ in DSNs and URLs
	regexp.MustCompile(`([a-zA-Z0-9_.-]+:)([^@/\s]+)(@)`),
	// key=value style secrets
	regexp.MustCompile(`(?i)((access|secret|token|key|passw(or)?d|dsn)[0-9a-z\-_.]*[\s:=]+)([^;,\s]{5,})`),
}

// sensitiveKeywords mark field keys whose values are always redacted.
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "credential", "token", "dsn", "access_key",
}

// RedactSensitiveData replaces credentials in s with "[REDACTED]".
func RedactSensitiveData(s string) string {
	if s == "" {
		return s
	}
	s = sensitiveDataPatterns[0].ReplaceAllString(s, "${1}[REDACTED]${3}")
	return sensitiveDataPatterns[1].ReplaceAllString(s, "${1}[REDACTED]")
}

// Redacted returns a string field whose value is scrubbed, or fully replaced
// when the key itself names a secret.
func Redacted(key, value string) Field {
	lower := strings.ToLower(key)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return String(key, "[REDACTED]")
		}
	}
	return String(key, RedactSensitiveData(value))
}
