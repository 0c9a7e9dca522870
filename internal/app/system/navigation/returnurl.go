// Package navigation keeps post-login and back-link redirects on this site.
package navigation

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/urlutil"
)

// ReturnOptions configures SafeReturn.
type ReturnOptions struct {
	// AllowedPrefix is the required path prefix (e.g., "/group").
	// If empty, any same-site path is allowed.
	AllowedPrefix string

	// ExcludedPrefixes are paths that must never be returned to, such as
	// the auth pages themselves. Matching one falls back.
	ExcludedPrefixes []string

	// Fallback is used when raw is missing or unsafe.
	Fallback string
}

// LoginReturn is applied to the return-to location captured by the sign-in
// guard. Returning to an auth page would bounce a signed-in user straight
// back home, so those go home directly.
var LoginReturn = ReturnOptions{
	ExcludedPrefixes: []string{
		"/login",
		"/logout",
		"/signup",
		"/verify-otp",
		"/forgot-password",
		"/reset-password",
	},
	Fallback: "/",
}

// SafeReturn validates a return location taken from a query string or form.
// Only same-site absolute paths survive; anything else yields opts.Fallback.
func SafeReturn(raw string, opts ReturnOptions) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.ContainsAny(raw, "\\\r\n") {
		return opts.Fallback
	}

	ret := urlutil.SafeReturn(raw, "", "")
	if ret == "" {
		return opts.Fallback
	}

	if opts.AllowedPrefix != "" && !strings.HasPrefix(ret, opts.AllowedPrefix) {
		return opts.Fallback
	}

	path, _, _ := strings.Cut(ret, "?")
	for _, excluded := range opts.ExcludedPrefixes {
		if path == excluded || strings.HasPrefix(path, excluded+"/") {
			return opts.Fallback
		}
	}
	return ret
}
