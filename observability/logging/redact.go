package logging

import (
	"log/slog"
	"net/url"
	"strings"
)

// RedactedValue is the canonical placeholder used for sensitive fields in logs.
const RedactedValue = "[REDACTED]"

// redactionAllowlist names the attributes that never carry secrets: process
// identity plus the deployment coordinates the solver logs at startup.
var redactionAllowlist = map[string]struct{}{
	"service":      {},
	"env":          {},
	"error":        {},
	"solve_id":     {},
	"contract":     {},
	"backend":      {},
	"admin_method": {},
}

// IsAllowlisted reports whether the provided key is exempt from automatic redaction.
func IsAllowlisted(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	_, ok := redactionAllowlist[normalized]
	return ok
}

// MaskField returns a slog.Attr that redacts the supplied value unless the key is
// explicitly allowlisted. The original key casing is preserved for readability.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" || IsAllowlisted(key) {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}

// urlMask replaces secrets inside URLs. It avoids the brackets of
// RedactedValue, which net/url would percent-encode.
const urlMask = "redacted"

var sensitiveQueryKeys = []string{"key", "apikey", "api_key", "token", "access_token", "secret"}

// MaskURL strips credentials from an endpoint before it is logged: userinfo,
// well-known secret query parameters and path segments that look like
// provider API keys. Unparseable input is masked entirely.
func MaskURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return RedactedValue
	}
	if parsed.User != nil {
		if _, ok := parsed.User.Password(); ok {
			parsed.User = url.UserPassword(parsed.User.Username(), urlMask)
		} else {
			parsed.User = url.User(urlMask)
		}
	}
	query := parsed.Query()
	masked := false
	for key := range query {
		for _, sensitive := range sensitiveQueryKeys {
			if strings.EqualFold(key, sensitive) {
				query.Set(key, urlMask)
				masked = true
			}
		}
	}
	if masked {
		parsed.RawQuery = query.Encode()
	}
	segments := strings.Split(parsed.Path, "/")
	for i, segment := range segments {
		if len(segment) >= 24 && !strings.ContainsAny(segment, ".-_") {
			segments[i] = urlMask
		}
	}
	parsed.Path = strings.Join(segments, "/")
	parsed.RawPath = ""
	return parsed.String()
}
