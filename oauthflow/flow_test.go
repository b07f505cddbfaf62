package oauthflow_test

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/chrissyx/zay-linkauth/oauthflow"
)

func newTestFlow(t *testing.T, provider oauthflow.Provider) *oauthflow.Flow {
	t.Helper()

	flow, err := oauthflow.NewFlow(provider, zerolog.Nop())
	require.NoError(t, err)
	return flow
}

func redirectURL(provider oauthflow.Provider, params url.Values) string {
	return provider.RedirectURI + "?" + params.Encode()
}

func TestNewFlow_RequiresClientID(t *testing.T) {
	_, err := oauthflow.NewFlow(oauthflow.Snapchat(""), zerolog.Nop())
	require.Error(t, err)
}

func TestFlow_Begin(t *testing.T) {
	flow := newTestFlow(t, oauthflow.Snapchat("client-1"))
	session := flow.Begin()

	t.Run("challenge is the S256 digest of the verifier", func(t *testing.T) {
		digest := sha256.Sum256([]byte(session.CodeVerifier))
		want := base64.RawURLEncoding.EncodeToString(digest[:])
		require.Equal(t, want, session.CodeChallenge)
	})

	t.Run("state is fresh and long enough", func(t *testing.T) {
		require.Len(t, session.State, 32)
		require.NotEqual(t, session.State, flow.Begin().State)
	})

	t.Run("authorization url carries the pkce parameters", func(t *testing.T) {
		u, err := url.Parse(session.AuthURL)
		require.NoError(t, err)

		query := u.Query()
		require.Equal(t, "client-1", query.Get("client_id"))
		require.Equal(t, session.State, query.Get("state"))
		require.Equal(t, session.CodeChallenge, query.Get("code_challenge"))
		require.Equal(t, "S256", query.Get("code_challenge_method"))
		require.Equal(t, "zay://auth/snapchat/callback", query.Get("redirect_uri"))
		require.Equal(t, "code", query.Get("response_type"))
	})

	t.Run("every session gets its own verifier", func(t *testing.T) {
		require.NotEqual(t, session.CodeVerifier, flow.Begin().CodeVerifier)
	})
}

func TestFlow_HandleRedirect(t *testing.T) {
	provider := oauthflow.Snapchat("client-1")

	t.Run("returns the code on a matching state", func(t *testing.T) {
		flow := newTestFlow(t, provider)
		session := flow.Begin()

		code, err := flow.HandleRedirect(session, redirectURL(provider, url.Values{
			"state": {session.State},
			"code":  {"auth-code-1"},
		}))
		require.NoError(t, err)
		require.Equal(t, "auth-code-1", code)
		require.Equal(t, oauthflow.PhaseResolved, session.Phase())
	})

	t.Run("provider error outranks everything else", func(t *testing.T) {
		flow := newTestFlow(t, provider)
		session := flow.Begin()

		_, err := flow.HandleRedirect(session, redirectURL(provider, url.Values{
			"state": {session.State},
			"error": {"access_denied"},
		}))
		require.ErrorIs(t, err, oauthflow.ErrAuthorizationDenied)
		require.Equal(t, oauthflow.PhaseFailed, session.Phase())
	})

	t.Run("wrong state is rejected before the code is read", func(t *testing.T) {
		flow := newTestFlow(t, provider)
		session := flow.Begin()

		_, err := flow.HandleRedirect(session, redirectURL(provider, url.Values{
			"state": {session.State + "x"},
			"code":  {"auth-code-1"},
		}))
		require.ErrorIs(t, err, oauthflow.ErrStateMismatch)
	})

	t.Run("missing code is a denial", func(t *testing.T) {
		flow := newTestFlow(t, provider)
		session := flow.Begin()

		_, err := flow.HandleRedirect(session, redirectURL(provider, url.Values{
			"state": {session.State},
		}))
		require.ErrorIs(t, err, oauthflow.ErrAuthorizationDenied)
	})

	t.Run("a session is consumed exactly once", func(t *testing.T) {
		flow := newTestFlow(t, provider)
		session := flow.Begin()

		callback := redirectURL(provider, url.Values{
			"state": {session.State},
			"code":  {"auth-code-1"},
		})
		_, err := flow.HandleRedirect(session, callback)
		require.NoError(t, err)

		_, err = flow.HandleRedirect(session, callback)
		require.ErrorIs(t, err, oauthflow.ErrSessionConsumed)
	})

	t.Run("a failed session stays consumed", func(t *testing.T) {
		flow := newTestFlow(t, provider)
		session := flow.Begin()

		_, err := flow.HandleRedirect(session, redirectURL(provider, url.Values{
			"state": {"tampered"},
			"code":  {"auth-code-1"},
		}))
		require.ErrorIs(t, err, oauthflow.ErrStateMismatch)

		_, err = flow.HandleRedirect(session, redirectURL(provider, url.Values{
			"state": {session.State},
			"code":  {"auth-code-1"},
		}))
		require.ErrorIs(t, err, oauthflow.ErrSessionConsumed)
	})
}

func tokenProvider(serverURL string) oauthflow.Provider {
	provider := oauthflow.Snapchat("client-1")
	provider.Endpoint = oauth2.Endpoint{
		AuthURL:  serverURL + "/auth",
		TokenURL: serverURL + "/token",
	}
	return provider
}

func TestFlow_Exchange(t *testing.T) {
	t.Run("returns the provider token", func(t *testing.T) {
		var gotVerifier string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			gotVerifier = r.Form.Get("code_verifier")
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"token-1","token_type":"Bearer","expires_in":3600}`)
		}))
		defer server.Close()

		flow := newTestFlow(t, tokenProvider(server.URL))
		token, err := flow.Exchange(context.Background(), "auth-code-1", "verifier-1")
		require.NoError(t, err)
		require.Equal(t, "token-1", token.AccessToken)
		require.Equal(t, "verifier-1", gotVerifier)
	})

	t.Run("a rejected code fails the exchange", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
		}))
		defer server.Close()

		flow := newTestFlow(t, tokenProvider(server.URL))
		_, err := flow.Exchange(context.Background(), "bad-code", "verifier-1")
		require.ErrorIs(t, err, oauthflow.ErrExchangeFailed)
	})

	t.Run("a response without an access token fails the exchange", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"token_type":"Bearer"}`)
		}))
		defer server.Close()

		flow := newTestFlow(t, tokenProvider(server.URL))
		_, err := flow.Exchange(context.Background(), "auth-code-1", "verifier-1")
		require.ErrorIs(t, err, oauthflow.ErrExchangeFailed)
	})

	t.Run("a stalled provider times out", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
		}))
		defer server.Close()

		flow := newTestFlow(t, tokenProvider(server.URL))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := flow.Exchange(ctx, "auth-code-1", "verifier-1")
		require.ErrorIs(t, err, oauthflow.ErrTimeout)
	})
}
