package vault

import "errors"

var (
	ErrTokenNotFound    = errors.New("access token not found")
	ErrTokenExpired     = errors.New("access token expired")
	ErrTokenAlreadyUsed = errors.New("access token already used")
)
