package prompt

import "errors"

// Validation errors for operator input.
var (
	errHostnameRequired = errors.New("hostname is required")
	errHostnameInvalid  = errors.New("hostname must be 1-63 character labels of letters, digits or hyphens, separated by dots")
	errTimezoneRequired = errors.New("timezone is required")
	errTimezoneInvalid  = errors.New("timezone must look like Area/Location (e.g. Europe/Moscow or UTC)")
	errUsernameRequired = errors.New("username is required")
	errUsernameInvalid  = errors.New("username must start with a lowercase letter or underscore and contain only lowercase letters, digits, '_' or '-' (max 32)")
	errUsernameRoot     = errors.New("username must not be root")
	errPasswordNewline  = errors.New("password must not contain line breaks")
)
