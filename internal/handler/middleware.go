package handler

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/msomdec/sordb/internal/domain"
	"github.com/msomdec/sordb/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// Auth verifies the X-API-Key header against the server-held secret, either
// as a constant-time comparison with the plaintext key or as a bcrypt check
// against a stored hash. When a token service is configured, a valid
// Authorization bearer token is accepted in place of the key.
type Auth struct {
	key    string
	hash   []byte
	tokens *service.Tokens
}

// NewAuth creates an Auth. Exactly one of key and hash should be non-empty;
// tokens may be nil to disable bearer authentication.
func NewAuth(key, hash string, tokens *service.Tokens) *Auth {
	return &Auth{key: key, hash: []byte(hash), tokens: tokens}
}

// Authenticate checks the request's credentials.
func (a *Auth) Authenticate(r *http.Request) error {
	if key := r.Header.Get("X-API-Key"); key != "" {
		if len(a.hash) > 0 {
			if bcrypt.CompareHashAndPassword(a.hash, []byte(key)) != nil {
				return domain.ErrUnauthorized
			}
			return nil
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(a.key)) != 1 {
			return domain.ErrUnauthorized
		}
		return nil
	}

	if a.tokens != nil {
		if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			return a.tokens.Validate(token)
		}
	}
	return domain.ErrUnauthorized
}

// RequireAuth is middleware that rejects unauthenticated requests with a 401.
func RequireAuth(a *Auth, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := a.Authenticate(r); err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Recover converts panics anywhere below it into a 500 JSON response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				slog.Error("panic in handler", "method", r.Method, "path", r.URL.Path, "panic", v)
				writeError(w, http.StatusInternalServerError, fmt.Sprint(v))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RateLimit rejects requests over the per-client budget with a 429. Clients
// are keyed by API key when present, otherwise by remote host. A nil limiter
// disables limiting.
func RateLimit(limiter *service.TokenBucket, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" {
			if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				key = host
			} else {
				key = r.RemoteAddr
			}
		}
		if !limiter.Allow(key) {
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders sets baseline response headers. Frame embedding stays
// allowed because the studio route is meant to be embedded.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
