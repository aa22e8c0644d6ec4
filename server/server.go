// Package server is the JSON facade the admin SPA talks to: sign-in and
// sign-out, the cached account list, account switching, role lookup and the
// transient notice feed.
package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/campusmedia/go-staff-console/internal/config"
	"github.com/campusmedia/go-staff-console/roles"
	"github.com/campusmedia/go-staff-console/switcher"
	"github.com/pkg/errors"
)

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	manager *switcher.Manager
	roles   roles.Resolver
	notices *NoticeFeed
}

func New(cfg config.Config, manager *switcher.Manager, resolver roles.Resolver, notices *NoticeFeed) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[Server New] config is required")
	}
	if manager == nil {
		return nil, errors.New("[Server New] manager is required")
	}
	if resolver == nil {
		return nil, errors.New("[Server New] role resolver is required")
	}
	if notices == nil {
		notices = NewNoticeFeed()
	}

	s := &Server{
		mux:     http.NewServeMux(),
		config:  cfg,
		manager: manager,
		roles:   resolver,
		notices: notices,
	}
	s.env = cfg.GetEnv()

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
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
