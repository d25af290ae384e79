package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ohsdesk/mesa/internal/domain"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"uid"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	RoleID int64  `json:"role"`
}

// Auth validates the Bearer token and stores the resulting viewer in
// the request context. Every table route sits behind this.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" {
				unauthorized(w)
				return
			}

			viewer, ok := authenticateJWT(tok, jwtSecret)
			if !ok {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
		})
	}
}

func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return auth[7:]
	}
	return ""
}

func authenticateJWT(tokenStr, secret string) (domain.Viewer, bool) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Viewer{}, false
	}
	if claims.UserID <= 0 || claims.RoleID <= 0 {
		return domain.Viewer{}, false
	}

	return domain.Viewer{
		UserID:      claims.UserID,
		DisplayName: claims.Name,
		Email:       claims.Email,
		RoleID:      claims.RoleID,
	}, true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`))
}
