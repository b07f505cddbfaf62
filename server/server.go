package server

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/chrissyx/zay-linkauth/deeplink"
	"github.com/chrissyx/zay-linkauth/devicetrust"
	"github.com/chrissyx/zay-linkauth/internal/config"
	"github.com/chrissyx/zay-linkauth/loginlink"
	"github.com/chrissyx/zay-linkauth/vault"
)

type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	config config.Config
	log    zerolog.Logger

	vault   *vault.Vault
	links   *loginlink.Service
	devices *devicetrust.Manager
	router  *deeplink.Router
}

func New(cfg config.Config, v *vault.Vault, links *loginlink.Service, devices *devicetrust.Manager, router *deeplink.Router, log zerolog.Logger) (*Server, error) {
	if v == nil || links == nil || devices == nil || router == nil {
		return nil, errors.New("[Server New] all services are required")
	}

	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		log:     log,
		vault:   v,
		links:   links,
		devices: devices,
		router:  router,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		s.log.Info().Str("route", route).Msg("registered")
	}
}
