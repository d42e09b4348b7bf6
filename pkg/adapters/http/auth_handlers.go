package http

import (
	"net/http"

	"github.com/aretw0/abacus/pkg/auth"
	"github.com/aretw0/abacus/pkg/domain"
)

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
	Token   string       `json:"token"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if !s.decode(w, r, &in) {
		return
	}
	user, token, err := s.auth.Register(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthResponse{
		Message: "User registered successfully",
		User:    user,
		Token:   token,
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if !s.decode(w, r, &in) {
		return
	}
	user, token, err := s.auth.Login(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{
		Message: "Login successful",
		User:    user,
		Token:   token,
	})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile retrieved successfully",
		"user":    user,
	})
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":   true,
		"message": "Token is valid",
		"user":    user,
	})
}
