package oauthflow

import (
	"context"
	"crypto/subtle"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/chrissyx/zay-linkauth/internal/securerand"
)

const (
	stateLength     = 32
	exchangeTimeout = 15 * time.Second
)

// Flow drives the authorization-code + PKCE dance for a single
// provider. Begin creates a Session, HandleRedirect validates the
// provider callback and consumes the session, Exchange trades the
// authorization code for tokens.
type Flow struct {
	provider Provider
	cfg      oauth2.Config
	client   *http.Client
	log      zerolog.Logger
}

// FlowOption configures optional Flow behaviour.
type FlowOption func(*Flow)

// WithHTTPClient overrides the client used for the token exchange.
func WithHTTPClient(client *http.Client) FlowOption {
	return func(f *Flow) {
		f.client = client
	}
}

// NewFlow creates a Flow for the given provider.
func NewFlow(provider Provider, log zerolog.Logger, options ...FlowOption) (*Flow, error) {
	if provider.ClientID == "" {
		return nil, errors.New("[NewFlow] provider client id not configured")
	}

	f := &Flow{
		provider: provider,
		cfg: oauth2.Config{
			ClientID:    provider.ClientID,
			RedirectURL: provider.RedirectURI,
			Scopes:      provider.Scopes,
			Endpoint:    provider.Endpoint,
		},
		client: &http.Client{Timeout: exchangeTimeout},
		log:    log.With().Str("provider", provider.Name).Logger(),
	}

	for _, option := range options {
		option(f)
	}
	return f, nil
}

// Provider returns the provider this flow authenticates against.
func (f *Flow) Provider() Provider {
	return f.provider
}

// Begin creates a fresh authorization session. Every call generates a
// new code verifier, S256 challenge and CSRF state, so a stale
// redirect can never match a later attempt.
func (f *Flow) Begin() *Session {
	verifier := oauth2.GenerateVerifier()
	state := securerand.Token(stateLength, securerand.Alphanumeric)

	authURL := f.cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	f.log.Debug().Msg("authorization session started")

	return &Session{
		CodeVerifier:  verifier,
		CodeChallenge: oauth2.S256ChallengeFromVerifier(verifier),
		State:         state,
		AuthURL:       authURL,
		phase:         PhaseAwaitingRedirect,
	}
}

// HandleRedirect validates the provider's callback against the session
// and returns the authorization code. The session is consumed whatever
// the outcome; a second call returns ErrSessionConsumed.
func (f *Flow) HandleRedirect(session *Session, callbackURL string) (string, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.phase != PhaseAwaitingRedirect {
		return "", ErrSessionConsumed
	}
	session.phase = PhaseFailed

	u, err := url.Parse(callbackURL)
	if err != nil {
		return "", errors.Wrap(err, "[HandleRedirect] malformed callback url")
	}
	query := u.Query()

	if errCode := query.Get("error"); errCode != "" {
		f.log.Warn().Str("error", errCode).Msg("provider denied authorization")
		return "", errors.Wrapf(ErrAuthorizationDenied, "[HandleRedirect] provider returned %q", errCode)
	}

	// State is checked before the code is even looked at.
	if subtle.ConstantTimeCompare([]byte(query.Get("state")), []byte(session.State)) != 1 {
		f.log.Warn().Msg("state mismatch on redirect")
		return "", ErrStateMismatch
	}

	code := query.Get("code")
	if code == "" {
		return "", errors.Wrap(ErrAuthorizationDenied, "[HandleRedirect] redirect carried no code")
	}

	session.phase = PhaseResolved
	return code, nil
}

// Exchange trades an authorization code for provider tokens, proving
// possession of the session's code verifier.
func (f *Flow) Exchange(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.client)

	token, err := f.cfg.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			f.log.Error().Err(err).Msg("token exchange timed out")
			return nil, errors.Wrap(ErrTimeout, "[Exchange] provider did not respond")
		}
		f.log.Error().Err(err).Msg("token exchange rejected")
		return nil, errors.Wrapf(ErrExchangeFailed, "[Exchange] %v", err)
	}

	if token.AccessToken == "" {
		return nil, errors.Wrap(ErrExchangeFailed, "[Exchange] response carried no access token")
	}
	return token, nil
}
