package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"tailscale.com/client/tailscale/apitype"
)

type contextKey int

const (
	userIDKey contextKey = iota
	userInfoKey
)

// DevUserID is the identity every request runs as when no identity
// provider is configured.
const DevUserID = "local"

// UserInfo describes the caller.
type UserInfo struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

var devUser = UserInfo{ID: DevUserID, Login: DevUserID, DisplayName: "Local Dev User"}

func withUser(r *http.Request, info UserInfo) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, info.ID)
	ctx = context.WithValue(ctx, userInfoKey, info)
	return r.WithContext(ctx)
}

// userIDFromContext returns the caller's user ID, falling back to the dev
// user when no identity middleware ran.
func userIDFromContext(r *http.Request) string {
	if id, ok := r.Context().Value(userIDKey).(string); ok && id != "" {
		return id
	}
	return DevUserID
}

// UserID returns the identified caller of r. Handlers mounted under the
// server, such as the MCP endpoint, use it to scope their data.
func UserID(r *http.Request) string {
	return userIDFromContext(r)
}

func userInfoFromContext(r *http.Request) UserInfo {
	if info, ok := r.Context().Value(userInfoKey).(UserInfo); ok {
		return info
	}
	return devUser
}

// DevIdentity runs every request as the local dev user.
func DevIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, withUser(r, devUser))
	})
}

// accessClaims is the payload of an identity provider access token.
type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTAuth verifies HS256 bearer tokens signed with secret and runs the
// request as the token subject.
func JWTAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
				return
			}

			claims := &accessClaims{}
			_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "token has expired"
				}
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": msg})
				return
			}
			if claims.Subject == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token has no subject"})
				return
			}

			info := UserInfo{ID: claims.Subject, Login: claims.Email, DisplayName: claims.Email}
			if info.Login == "" {
				info.Login = claims.Subject
			}
			next.ServeHTTP(w, withUser(r, info))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return token, true
}

// WhoIser resolves a tailnet peer address to its user.
type WhoIser interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// TailscaleIdentity runs each request as the tailnet user that sent it.
func TailscaleIdentity(lc WhoIser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who, err := lc.WhoIs(r.Context(), r.RemoteAddr)
			if err != nil || who.UserProfile == nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": fmt.Sprintf("unknown tailnet peer %s", r.RemoteAddr)})
				return
			}
			p := who.UserProfile
			next.ServeHTTP(w, withUser(r, UserInfo{ID: p.LoginName, Login: p.LoginName, DisplayName: p.DisplayName}))
		})
	}
}

// identify picks the identity source: bearer tokens when a secret is
// configured, the tailnet when serving over tsnet, else the dev user.
func (s *Server) identify(next http.Handler) http.Handler {
	jwtNext := JWTAuth(s.jwtSecret)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case s.jwtSecret != "":
			jwtNext.ServeHTTP(w, r)
		case s.tailscale != nil:
			TailscaleIdentity(s.tailscale)(next).ServeHTTP(w, r)
		default:
			DevIdentity(next).ServeHTTP(w, r)
		}
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}
