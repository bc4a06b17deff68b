package identity

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	// CSRFCookieName is the cookie the backend stores its CSRF token in.
	CSRFCookieName = "csrftoken"
	// CSRFHeader carries the token on state-changing backend requests.
	CSRFHeader = "X-CSRFToken"
)

// ParseCSRFToken extracts the CSRF token from a "name=value; name=value"
// cookie string. The value is percent-decoded without turning '+' into a
// space. An absent cookie yields "".
func ParseCSRFToken(cookieHeader string) string {
	prefix := CSRFCookieName + "="
	for _, part := range strings.Split(cookieHeader, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, prefix) {
			return decodeCookieValue(part[len(prefix):])
		}
	}
	return ""
}

// ParseCookieHeader parses a "name=value; ..." string into cookies.
// Malformed pairs are skipped.
func ParseCookieHeader(cookieHeader string) []*http.Cookie {
	req := http.Request{Header: http.Header{"Cookie": {cookieHeader}}}
	return req.Cookies()
}

func decodeCookieValue(v string) string {
	decoded, err := url.PathUnescape(v)
	if err != nil {
		return v
	}
	return decoded
}
