package oauthflow

import "errors"

var (
	ErrAuthorizationDenied = errors.New("authorization denied by provider")
	ErrStateMismatch       = errors.New("state parameter mismatch")
	ErrExchangeFailed      = errors.New("token exchange failed")
	ErrTimeout             = errors.New("token exchange timed out")
	ErrSessionConsumed     = errors.New("authorization session already consumed")
)
