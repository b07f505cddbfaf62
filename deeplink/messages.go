package deeplink

import (
	"github.com/pkg/errors"

	"github.com/chrissyx/zay-linkauth/loginlink"
	"github.com/chrissyx/zay-linkauth/oauthflow"
	"github.com/chrissyx/zay-linkauth/securestore"
	"github.com/chrissyx/zay-linkauth/vault"
)

const (
	msgLinkSpent    = "This link has expired or was already used. Please request a new one."
	msgLinkInvalid  = "This link is not valid."
	msgSignInDenied = "Sign-in was cancelled."
	msgNetwork      = "Something went wrong talking to the server. Please try again."
	msgGeneric      = "Could not open this link. Please try again."
)

// UserMessage maps a routing error to the message shown to the user.
// Expired/used links ask for a fresh link, invalid links do not, and
// transient failures invite a retry.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, vault.ErrTokenExpired),
		errors.Is(err, vault.ErrTokenAlreadyUsed),
		errors.Is(err, loginlink.ErrLinkExpired),
		errors.Is(err, loginlink.ErrLinkAlreadyUsed):
		return msgLinkSpent
	case errors.Is(err, vault.ErrTokenNotFound),
		errors.Is(err, loginlink.ErrLinkNotFound),
		errors.Is(err, loginlink.ErrTicketMismatch),
		errors.Is(err, loginlink.ErrMalformedLink),
		errors.Is(err, oauthflow.ErrStateMismatch),
		errors.Is(err, ErrSecurityViolation):
		return msgLinkInvalid
	case errors.Is(err, oauthflow.ErrAuthorizationDenied):
		return msgSignInDenied
	case errors.Is(err, oauthflow.ErrTimeout),
		errors.Is(err, oauthflow.ErrExchangeFailed),
		errors.Is(err, securestore.ErrStoreUnavailable):
		return msgNetwork
	default:
		return msgGeneric
	}
}
