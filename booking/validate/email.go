package validate

import "regexp"

var emailRe = regexp.MustCompile(`(?i)^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// Email reports whether raw looks like a local-part@domain.tld address.
func Email(raw string) bool {
	return emailRe.MatchString(raw)
}
