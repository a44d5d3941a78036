// Package urlcheck decides whether a string is an acceptable endpoint URL.
package urlcheck

import (
	"net/url"
	"strings"

	"github.com/asaskevich/govalidator"
	"golang.org/x/net/idna"
)

// Predicate reports whether a URL is well formed. The registry takes one
// as a dependency so callers can tighten or relax the rule.
type Predicate func(raw string) bool

// DefaultSchemes are the schemes Valid accepts.
var DefaultSchemes = []string{"http", "https", "ftp", "ftps"}

var valid = Schemes(Absolute, DefaultSchemes...)

// Valid is the default Predicate: an Absolute URL with one of
// DefaultSchemes.
func Valid(raw string) bool {
	return valid(raw)
}

// Schemes restricts next to URLs whose scheme is one of schemes, compared
// case-insensitively.
func Schemes(next Predicate, schemes ...string) Predicate {
	allowed := make(map[string]bool, len(schemes))
	for _, s := range schemes {
		allowed[strings.ToLower(s)] = true
	}
	return func(raw string) bool {
		u, err := url.Parse(raw)
		if err != nil || !allowed[strings.ToLower(u.Scheme)] {
			return false
		}
		return next(raw)
	}
}

// Absolute accepts URLs with a scheme and a host that is a dotted domain
// name, localhost or an IP literal. Whitespace anywhere rejects the URL.
func Absolute(raw string) bool {
	if raw == "" || strings.ContainsAny(raw, " \t\r\n") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Opaque != "" {
		return false
	}
	if port := u.Port(); port != "" && !govalidator.IsPort(port) {
		return false
	}
	return validHost(u.Hostname())
}

func validHost(host string) bool {
	switch {
	case host == "":
		return false
	case strings.EqualFold(host, "localhost"), govalidator.IsIP(host):
		return true
	}

	ascii, err := idna.Lookup.ToASCII(strings.TrimSuffix(host, "."))
	if err != nil || !govalidator.IsDNSName(ascii) {
		return false
	}
	labels := strings.Split(ascii, ".")
	// a dotted name with an alphabetic TLD
	return len(labels) >= 2 && !govalidator.IsNumeric(labels[len(labels)-1])
}
