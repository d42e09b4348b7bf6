package http

import (
	"fmt"
	"net/http"
	"time"
)

// endpoint is one public route, listed by the index and the 404 response.
type endpoint struct {
	Group  string
	Name   string
	Method string
	Path   string
}

func (e endpoint) String() string {
	return e.Method + " " + e.Path
}

var endpoints = []endpoint{
	{"meta", "health", http.MethodGet, "/health"},
	{"meta", "info", http.MethodGet, "/info"},
	{"meta", "metrics", http.MethodGet, "/metrics"},
	{"auth", "register", http.MethodPost, "/api/auth/register"},
	{"auth", "login", http.MethodPost, "/api/auth/login"},
	{"auth", "profile", http.MethodGet, "/api/auth/profile"},
	{"auth", "verify", http.MethodGet, "/api/auth/verify"},
	{"operations", "save", http.MethodPost, "/api/operations"},
	{"operations", "list", http.MethodGet, "/api/operations"},
	{"operations", "statistics", http.MethodGet, "/api/operations/statistics"},
	{"operations", "delete", http.MethodDelete, "/api/operations/{id}"},
	{"operations", "clear", http.MethodDelete, "/api/operations"},
	{"calculator", "evaluate", http.MethodPost, "/api/calculator/evaluate"},
	{"calculator", "createSession", http.MethodPost, "/api/calculator/sessions"},
	{"calculator", "getSession", http.MethodGet, "/api/calculator/sessions/{id}"},
	{"calculator", "pressKeys", http.MethodPost, "/api/calculator/sessions/{id}/keys"},
	{"calculator", "deleteSession", http.MethodDelete, "/api/calculator/sessions/{id}"},
	{"calculator", "events", http.MethodGet, "/api/calculator/sessions/{id}/events"},
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	groups := make(map[string]map[string]string)
	for _, e := range endpoints {
		if groups[e.Group] == nil {
			groups[e.Group] = make(map[string]string)
		}
		groups[e.Group][e.Name] = e.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Abacus scientific calculator API",
		"version":       s.version,
		"endpoints":     groups,
		"documentation": "/swagger",
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"message":   "Abacus API is running",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"version":   s.version,
	})
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	doc, err := GetSwagger()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":    s.version,
		"apiVersion": doc.Info.Version,
	})
}

func (s *Server) openapi(w http.ResponseWriter, r *http.Request) {
	spec, err := rawSpec()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/yaml")
	_, _ = w.Write(spec)
}

func (s *Server) swagger(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Security-Policy", swaggerCSP)
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(swaggerHTML))
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	available := make([]string, len(endpoints))
	for i, e := range endpoints {
		available[i] = e.String()
	}
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":              "Route not found",
		"message":            fmt.Sprintf("Route %s %s does not exist", r.Method, r.URL.Path),
		"availableEndpoints": available,
	})
}
