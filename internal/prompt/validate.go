package prompt

import (
	"regexp"
	"strings"

	gssh "github.com/3cpo-dev/hostinit/internal/ssh"
)

var (
	hostnameLabel = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?$`)
	timezoneRegex = regexp.MustCompile(`^[A-Za-z0-9_+\-]+(?:/[A-Za-z0-9_+\-]+)*$`)
	usernameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)
)

// ValidateHostname accepts RFC 1123 host names up to 253 characters.
func ValidateHostname(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errHostnameRequired
	}
	if len(s) > 253 {
		return errHostnameInvalid
	}
	for _, label := range strings.Split(s, ".") {
		if !hostnameLabel.MatchString(label) {
			return errHostnameInvalid
		}
	}
	return nil
}

func ValidateTimezone(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errTimezoneRequired
	}
	if !timezoneRegex.MatchString(s) || strings.Contains(s, "..") {
		return errTimezoneInvalid
	}
	return nil
}

func ValidateUsername(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errUsernameRequired
	}
	if s == "root" {
		return errUsernameRoot
	}
	if !usernameRegex.MatchString(s) {
		return errUsernameInvalid
	}
	return nil
}

// ValidatePassword only rejects values chpasswd cannot take. Blank is
// allowed here; whether a blank password is fatal is up to the caller.
func ValidatePassword(s string) error {
	if strings.ContainsAny(s, "\r\n") {
		return errPasswordNewline
	}
	return nil
}

// ValidatePublicKey checks one authorized_keys line.
func ValidatePublicKey(s string) error {
	_, err := gssh.ParseAuthorizedKey(s)
	return err
}

// validateOptionalKey accepts blank input, which ends key entry.
func validateOptionalKey(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return ValidatePublicKey(s)
}
