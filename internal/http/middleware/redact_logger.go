package middleware

import (
	"net/http"
	"regexp"
	"strings"
)

// SensitiveHeaders are always masked in access logs. Besides credentials
// this covers the birth data forwarded by the identity gateway.
var SensitiveHeaders = []string{
	"Authorization",
	"Cookie",
	"Set-Cookie",
	HeaderUserBirthDate,
	HeaderUserBirthTime,
}

// RedactOptions configures additional headers to mask in access logs.
// Matching is case-insensitive.
type RedactOptions struct {
	MaskHeaders []string
}

var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	dateRE  = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	// Digits only, so hex runs inside UUIDs never match.
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redactor scrubs identifiers, e-mail addresses, calendar dates and phone
// numbers from free text, and masks sensitive headers.
type redactor struct {
	mask map[string]struct{}
}

func newRedactor(opts RedactOptions) *redactor {
	r := &redactor{mask: make(map[string]struct{})}
	for _, h := range append(append([]string{}, SensitiveHeaders...), opts.MaskHeaders...) {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			r.mask[h] = struct{}{}
		}
	}
	return r
}

// text applies the patterns loosest-last: the phone pattern would otherwise
// eat parts of UUIDs and dates.
func (r *redactor) text(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	s = dateRE.ReplaceAllString(s, "[REDACTED:date]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

func (r *redactor) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := r.mask[strings.ToLower(k)]; ok {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = r.text(strings.Join(vv, ", "))
	}
	return out
}
