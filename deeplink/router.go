package deeplink

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/chrissyx/zay-linkauth/oauthflow"
	"github.com/chrissyx/zay-linkauth/sessions"
)

// Kind classifies what a deep link resolved to.
type Kind int

const (
	KindIgnored Kind = iota
	KindProfile
	KindSupportLogin
	KindOAuthCallback
)

func (k Kind) String() string {
	switch k {
	case KindProfile:
		return "profile"
	case KindSupportLogin:
		return "supportLogin"
	case KindOAuthCallback:
		return "oauthCallback"
	default:
		return "ignored"
	}
}

// Resolution is the outcome of routing one deep link.
type Resolution struct {
	Kind          Kind
	Username      string
	Provider      string
	SessionToken  string
	ProviderToken string
}

// TokenVault consumes single-use profile tokens.
type TokenVault interface {
	ValidateAndConsume(token string) (string, error)
}

// SupportLinkResolver consumes agent-issued login links.
type SupportLinkResolver interface {
	Resolve(ctx context.Context, linkKey, ticketID string) (string, error)
	Retire(ctx context.Context, linkKey string)
}

// SessionStore persists login state once a link resolves an identity.
type SessionStore interface {
	Establish(username, deviceID string) (string, *sessions.Session, error)
}

// DeviceIdentity reports the hashed identity of the current device.
type DeviceIdentity interface {
	DeviceID() string
}

// LinkParser extracts the ticket id and link key from a support link.
type LinkParser func(rawURL string) (ticketID, linkKey string, err error)

// Router is the top-level dispatcher for zay:// deep links. It
// classifies an incoming URL by host, drives the matching flow and
// hands resolved identities to the session store.
type Router struct {
	vault     TokenVault
	links     SupportLinkResolver
	device    DeviceIdentity
	sessions  SessionStore
	parseLink LinkParser
	log       zerolog.Logger

	mu      sync.Mutex
	flows   map[string]*oauthflow.Flow
	pending map[string]*oauthflow.Session
}

// NewRouter wires the router to its collaborators.
func NewRouter(vault TokenVault, links SupportLinkResolver, device DeviceIdentity, sessionStore SessionStore, parseLink LinkParser, log zerolog.Logger) (*Router, error) {
	if vault == nil || links == nil || device == nil || sessionStore == nil || parseLink == nil {
		return nil, errors.New("[NewRouter] all collaborators are required")
	}

	return &Router{
		vault:     vault,
		links:     links,
		device:    device,
		sessions:  sessionStore,
		parseLink: parseLink,
		log:       log,
		flows:     map[string]*oauthflow.Flow{},
		pending:   map[string]*oauthflow.Session{},
	}, nil
}

// RegisterFlow makes an OAuth provider routable via zay://auth links.
func (r *Router) RegisterFlow(flow *oauthflow.Flow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows[flow.Provider().Name] = flow
}

// BeginOAuth starts an authorization attempt for the named provider
// and remembers its session until the redirect callback arrives. A
// second Begin for the same provider abandons the earlier attempt.
func (r *Router) BeginOAuth(provider string) (*oauthflow.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flow, ok := r.flows[provider]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProvider, "[BeginOAuth] %q", provider)
	}

	session := flow.Begin()
	r.pending[provider] = session
	return session, nil
}

// Handle classifies and resolves one deep link. Unrecognized links
// resolve to KindIgnored without error; recognized links surface the
// kind-specific error of the flow they dispatched to.
func (r *Router) Handle(ctx context.Context, rawURL string) (*Resolution, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "zay" {
		return &Resolution{Kind: KindIgnored}, nil
	}

	switch u.Host {
	case "profile":
		return r.handleProfile(u)
	case "zayapi":
		return r.handleSupportLogin(ctx, u, rawURL)
	case "auth":
		return r.handleOAuthCallback(ctx, u, rawURL)
	default:
		r.log.Debug().Str("host", u.Host).Msg("ignoring unrecognized deep link")
		return &Resolution{Kind: KindIgnored}, nil
	}
}

func (r *Router) handleProfile(u *url.URL) (*Resolution, error) {
	username := strings.Trim(u.Path, "/")
	if username == "" {
		return &Resolution{Kind: KindIgnored}, nil
	}

	token := u.Query().Get("token")
	if token == "" {
		// A bare profile link carries no credential; nothing to consume.
		return &Resolution{Kind: KindProfile, Username: username}, nil
	}

	owner, err := r.vault.ValidateAndConsume(token)
	if err != nil {
		return nil, errors.Wrap(err, "[Handle] profile token")
	}

	// The token is consumed either way; a mismatched owner must not
	// open anyone's profile.
	if owner != username {
		r.log.Warn().Str("requested", username).Msg("profile token owner mismatch")
		return nil, errors.Wrapf(ErrSecurityViolation, "[Handle] token not issued for %q", username)
	}

	sessionToken, _, err := r.sessions.Establish(owner, r.device.DeviceID())
	if err != nil {
		return nil, errors.Wrap(err, "[Handle] establishing profile session")
	}

	return &Resolution{Kind: KindProfile, Username: owner, SessionToken: sessionToken}, nil
}

func (r *Router) handleSupportLogin(ctx context.Context, u *url.URL, rawURL string) (*Resolution, error) {
	if !strings.HasPrefix(u.Path, "/supportticket") {
		return &Resolution{Kind: KindIgnored}, nil
	}

	ticketID, linkKey, err := r.parseLink(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "[Handle] support link")
	}

	username, err := r.links.Resolve(ctx, linkKey, ticketID)
	if err != nil {
		return nil, errors.Wrap(err, "[Handle] resolving support link")
	}
	r.links.Retire(ctx, linkKey)

	sessionToken, _, err := r.sessions.Establish(username, r.device.DeviceID())
	if err != nil {
		return nil, errors.Wrap(err, "[Handle] establishing support session")
	}

	r.log.Info().Str("username", username).Msg("support login link resolved")
	return &Resolution{Kind: KindSupportLogin, Username: username, SessionToken: sessionToken}, nil
}

func (r *Router) handleOAuthCallback(ctx context.Context, u *url.URL, rawURL string) (*Resolution, error) {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) != 2 || segments[1] != "callback" {
		return &Resolution{Kind: KindIgnored}, nil
	}
	provider := segments[0]

	r.mu.Lock()
	flow := r.flows[provider]
	session := r.pending[provider]
	delete(r.pending, provider)
	r.mu.Unlock()

	if flow == nil || session == nil {
		return nil, errors.Wrapf(ErrNoPendingAuth, "[Handle] %q callback", provider)
	}

	code, err := flow.HandleRedirect(session, rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "[Handle] oauth redirect")
	}

	token, err := flow.Exchange(ctx, code, session.CodeVerifier)
	if err != nil {
		return nil, errors.Wrap(err, "[Handle] oauth exchange")
	}

	return &Resolution{Kind: KindOAuthCallback, Provider: provider, ProviderToken: token.AccessToken}, nil
}
