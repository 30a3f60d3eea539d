package fakeapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type claims struct {
	Role string `json:"role"`
	Gen  int    `json:"gen"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken() (string, error) {
	now := s.opts.Now()
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	c := &claims{
		Role: "admin",
		Gen:  gen,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.opts.AdminUser,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid request"})
		return
	}
	if req.Username != s.opts.AdminUser || bcrypt.CompareHashAndPassword(s.adminHash, []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid credentials"})
		return
	}
	tok, err := s.issueToken()
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": tok})
}

func extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization format")
	}
	return parts[1], nil
}

func (s *Server) admin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, err := extractBearerToken(r)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		c := &claims{}
		token, err := jwt.ParseWithClaims(tokenStr, c, func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.opts.Now))
		if err != nil || !token.Valid {
			writeMessage(w, http.StatusUnauthorized, "Token is not valid")
			return
		}
		s.mu.Lock()
		stale := c.Gen != s.gen
		s.mu.Unlock()
		if stale || c.Role != "admin" {
			writeMessage(w, http.StatusUnauthorized, "Token is not valid")
			return
		}
		next(w, r)
	})
}
