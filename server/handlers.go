package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/chrissyx/zay-linkauth/deeplink"
	"github.com/chrissyx/zay-linkauth/loginlink"
	"github.com/chrissyx/zay-linkauth/oauthflow"
	"github.com/chrissyx/zay-linkauth/securestore"
	"github.com/chrissyx/zay-linkauth/vault"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error().Err(err).Msg("encoding response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{
		Error:   errors.Cause(err).Error(),
		Message: deeplink.UserMessage(err),
	})
}

// resolveStatus maps a deep-link resolution failure to an HTTP status.
func resolveStatus(err error) int {
	switch {
	case errors.Is(err, vault.ErrTokenExpired),
		errors.Is(err, vault.ErrTokenAlreadyUsed),
		errors.Is(err, loginlink.ErrLinkExpired),
		errors.Is(err, loginlink.ErrLinkAlreadyUsed):
		return http.StatusGone
	case errors.Is(err, deeplink.ErrSecurityViolation),
		errors.Is(err, oauthflow.ErrStateMismatch),
		errors.Is(err, oauthflow.ErrAuthorizationDenied):
		return http.StatusForbidden
	case errors.Is(err, vault.ErrTokenNotFound),
		errors.Is(err, loginlink.ErrLinkNotFound):
		return http.StatusNotFound
	case errors.Is(err, oauthflow.ErrTimeout),
		errors.Is(err, oauthflow.ErrExchangeFailed),
		errors.Is(err, securestore.ErrStoreUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

// CreateLoginLinkHandler lets a support agent mint a one-time login
// link for a user.
func (s *Server) CreateLoginLinkHandler() http.HandlerFunc {
	type request struct {
		TicketID       string `json:"ticketId"`
		TargetUsername string `json:"targetUsername"`
		Issuer         string `json:"issuer"`
	}
	type response struct {
		ID             string    `json:"id"`
		TicketID       string    `json:"ticketId"`
		TargetUsername string    `json:"targetUsername"`
		URL            string    `json:"url"`
		ExpiresAt      time.Time `json:"expiresAt"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
			return
		}
		if req.TicketID == "" {
			req.TicketID = loginlink.NewTicketID()
		}

		link, err := s.links.Create(r.Context(), req.TicketID, req.TargetUsername, req.Issuer)
		if err != nil {
			s.log.Error().Err(err).Msg("creating login link")
			s.writeError(w, http.StatusBadRequest, err)
			return
		}

		s.writeJSON(w, http.StatusCreated, response{
			ID:             link.ID,
			TicketID:       link.TicketID,
			TargetUsername: link.TargetUsername,
			URL:            loginlink.LinkURL(link.TicketID, link.LinkKey),
			ExpiresAt:      link.ExpiresAt,
		})
	}
}

// ResolveDeepLinkHandler takes a tapped URL from the app shell and
// routes it through the deep-link layer.
func (s *Server) ResolveDeepLinkHandler() http.HandlerFunc {
	type request struct {
		URL string `json:"url"`
	}
	type response struct {
		Kind          string `json:"kind"`
		Username      string `json:"username,omitempty"`
		Provider      string `json:"provider,omitempty"`
		SessionToken  string `json:"sessionToken,omitempty"`
		ProviderToken string `json:"providerToken,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			s.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
			return
		}

		resolution, err := s.router.Handle(r.Context(), req.URL)
		if err != nil {
			s.log.Warn().Err(err).Msg("deep link rejected")
			s.writeError(w, resolveStatus(err), err)
			return
		}

		s.writeJSON(w, http.StatusOK, response{
			Kind:          resolution.Kind.String(),
			Username:      resolution.Username,
			Provider:      resolution.Provider,
			SessionToken:  resolution.SessionToken,
			ProviderToken: resolution.ProviderToken,
		})
	}
}

// ListDevicesHandler returns the trusted devices for an account.
func (s *Server) ListDevicesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.PathValue("username")

		devices, err := s.devices.TrustedDevices(r.Context(), username)
		if err != nil {
			s.log.Error().Err(err).Str("username", username).Msg("listing trusted devices")
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		s.writeJSON(w, http.StatusOK, devices)
	}
}

// TrustDeviceHandler adds the current device to an account's trusted
// set. Re-trusting is a no-op success.
func (s *Server) TrustDeviceHandler() http.HandlerFunc {
	type request struct {
		Label string `json:"label"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		username := r.PathValue("username")

		var req request
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		if err := s.devices.TrustCurrentDevice(r.Context(), username, req.Label); err != nil {
			s.log.Error().Err(err).Str("username", username).Msg("trusting device")
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// UntrustDeviceHandler removes a device from an account's trusted set.
func (s *Server) UntrustDeviceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.PathValue("username")
		deviceID := r.PathValue("deviceID")

		if err := s.devices.Untrust(r.Context(), username, deviceID); err != nil {
			s.log.Error().Err(err).Str("username", username).Msg("untrusting device")
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// BeginOAuthHandler starts a PKCE authorization attempt and returns
// the URL the app should open.
func (s *Server) BeginOAuthHandler() http.HandlerFunc {
	type response struct {
		AuthURL string `json:"authUrl"`
		State   string `json:"state"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		provider := r.PathValue("provider")

		session, err := s.router.BeginOAuth(provider)
		if err != nil {
			if errors.Is(err, deeplink.ErrUnknownProvider) {
				s.writeError(w, http.StatusNotFound, err)
				return
			}
			s.log.Error().Err(err).Str("provider", provider).Msg("beginning oauth")
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}

		s.writeJSON(w, http.StatusOK, response{
			AuthURL: session.AuthURL,
			State:   session.State,
		})
	}
}
