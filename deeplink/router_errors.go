package deeplink

import "errors"

var (
	ErrSecurityViolation = errors.New("token owner does not match requested profile")
	ErrNoPendingAuth     = errors.New("no pending authorization for provider")
	ErrUnknownProvider   = errors.New("provider is not registered")
)
