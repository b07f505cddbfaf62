package loginlink

import "errors"

var (
	ErrLinkNotFound    = errors.New("login link not found")
	ErrLinkExpired     = errors.New("login link expired")
	ErrLinkAlreadyUsed = errors.New("login link already used")
	ErrTicketMismatch  = errors.New("login link ticket mismatch")
	ErrMalformedLink   = errors.New("malformed login link")
)
