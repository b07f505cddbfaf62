package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/chrissyx/zay-linkauth/deeplink"
	"github.com/chrissyx/zay-linkauth/devicetrust"
	"github.com/chrissyx/zay-linkauth/devicetrust/repofakes"
	"github.com/chrissyx/zay-linkauth/internal/config"
	"github.com/chrissyx/zay-linkauth/loginlink"
	linkfakes "github.com/chrissyx/zay-linkauth/loginlink/repofakes"
	"github.com/chrissyx/zay-linkauth/oauthflow"
	"github.com/chrissyx/zay-linkauth/securestore/storefakes"
	"github.com/chrissyx/zay-linkauth/server"
	"github.com/chrissyx/zay-linkauth/sessions"
	"github.com/chrissyx/zay-linkauth/vault"
)

func newTestServer(t *testing.T) (*server.Server, *vault.Vault) {
	t.Helper()

	log := zerolog.Nop()

	v, err := vault.New(storefakes.NewFakeStore(), log)
	require.NoError(t, err)

	links, err := loginlink.NewService(linkfakes.NewFakeLinkRepo(), log)
	require.NoError(t, err)

	devices, err := devicetrust.New("android-id-1234", "Pixel 8", repofakes.NewFakeDeviceRepo(), log)
	require.NoError(t, err)

	sessionStore, err := sessions.NewManager([]byte("0123456789abcdef0123456789abcdef"), log)
	require.NoError(t, err)

	router, err := deeplink.NewRouter(v, links, devices, sessionStore, loginlink.ParseLink, log)
	require.NoError(t, err)

	flow, err := oauthflow.NewFlow(oauthflow.Snapchat("client-1"), log)
	require.NoError(t, err)
	router.RegisterFlow(flow)

	srv, err := server.New(config.New(), v, links, devices, router, log)
	require.NoError(t, err)
	return srv, v
}

func doJSON(t *testing.T, srv *server.Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestCreateLoginLinkHandler(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/login-links",
		`{"ticketId":"JH13BNK","targetUsername":"alice","issuer":"agent-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		TicketID string `json:"ticketId"`
		URL      string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "JH13BNK", resp.TicketID)
	require.Contains(t, resp.URL, "zay://zayapi/supportticket/id?=JH13BNK/key?=")
}

func TestCreateLoginLinkHandler_GeneratesTicketID(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/login-links",
		`{"targetUsername":"alice","issuer":"agent-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		TicketID string `json:"ticketId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Regexp(t, `^[A-Z0-9]{7}$`, resp.TicketID)
}

func TestResolveDeepLinkHandler(t *testing.T) {
	t.Run("resolves a created login link end to end", func(t *testing.T) {
		srv, _ := newTestServer(t)

		rec := doJSON(t, srv, http.MethodPost, "/api/login-links",
			`{"ticketId":"JH13BNK","targetUsername":"alice","issuer":"agent-1"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var created struct {
			URL string `json:"url"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

		body, err := json.Marshal(map[string]string{"url": created.URL})
		require.NoError(t, err)

		rec = doJSON(t, srv, http.MethodPost, "/api/deeplink/resolve", string(body))
		require.Equal(t, http.StatusOK, rec.Code)

		var resolved struct {
			Kind         string `json:"kind"`
			Username     string `json:"username"`
			SessionToken string `json:"sessionToken"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resolved))
		require.Equal(t, "supportLogin", resolved.Kind)
		require.Equal(t, "alice", resolved.Username)
		require.NotEmpty(t, resolved.SessionToken)

		// The link is one-shot; once retired a replay finds nothing.
		rec = doJSON(t, srv, http.MethodPost, "/api/deeplink/resolve", string(body))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("profile token owner mismatch is forbidden", func(t *testing.T) {
		srv, v := newTestServer(t)

		token, err := v.Issue("carol")
		require.NoError(t, err)

		rec := doJSON(t, srv, http.MethodPost, "/api/deeplink/resolve",
			`{"url":"zay://profile/bob?token=`+token.Token+`"}`)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unrecognized links are an ok no-op", func(t *testing.T) {
		srv, _ := newTestServer(t)

		rec := doJSON(t, srv, http.MethodPost, "/api/deeplink/resolve",
			`{"url":"zay://unknownhost/path"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resolved struct {
			Kind string `json:"kind"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resolved))
		require.Equal(t, "ignored", resolved.Kind)
	})

	t.Run("missing body is a bad request", func(t *testing.T) {
		srv, _ := newTestServer(t)

		rec := doJSON(t, srv, http.MethodPost, "/api/deeplink/resolve", `{}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeviceHandlers(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/devices/alice/trust", `{"label":"My Pixel"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/devices/alice", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var devices []devicetrust.TrustedDevice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &devices))
	require.Len(t, devices, 1)
	require.Equal(t, "My Pixel", devices[0].DeviceInfo)

	rec = doJSON(t, srv, http.MethodDelete, "/api/devices/alice/"+devices[0].DeviceID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/devices/alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &devices))
	require.Empty(t, devices)
}

func TestBeginOAuthHandler(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/oauth/snapchat/begin", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AuthURL string `json:"authUrl"`
		State   string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.AuthURL, "code_challenge_method=S256")
	require.Len(t, resp.State, 32)

	rec = doJSON(t, srv, http.MethodGet, "/api/oauth/myspace/begin", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
