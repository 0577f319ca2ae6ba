// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/marathonhub/internal/app/system/access"
	"github.com/dalemusser/marathonhub/internal/app/system/credential"
)

// TokenCookieName is the cookie that carries the signed credential.
const TokenCookieName = "token"

var (
	// ErrNoToken means the request carried neither a token cookie nor an
	// Authorization header.
	ErrNoToken = errors.New("no token on request")

	// ErrNotBearer means an Authorization header was present but did not
	// use the Bearer scheme.
	ErrNotBearer = errors.New("authorization header is not a bearer token")

	// ErrInvalidAuthHeader means the Authorization header was malformed.
	ErrInvalidAuthHeader = errors.New("malformed authorization header")
)

type ctxKey int

const (
	credentialKey ctxKey = iota
	authErrorKey
)

// TokenFromRequest extracts the raw credential from a request, checking
// the token cookie first, then the Authorization header. Mobile clients
// send Bearer tokens; browsers send the cookie.
func TokenFromRequest(r *http.Request) (string, error) {
	if c, err := r.Cookie(TokenCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoToken
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || token == "" {
		return "", ErrInvalidAuthHeader
	}
	if !strings.EqualFold(scheme, "Bearer") {
		return "", ErrNotBearer
	}
	return token, nil
}

// SetTokenCookie attaches a freshly minted credential to the response.
// The cookie expiry mirrors the token expiry; an expired cookie and an
// expired token fail the same way.
func SetTokenCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie removes the credential cookie.
func ClearTokenCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Authenticator verifies the request's credential and injects it into
// the context. Requests without a token pass through anonymous. Requests
// with a bad token also pass through anonymous, but the cookie is
// cleared and the verification error is stashed in the context so
// handlers that care (userinfo, login) can report it; guards downstream
// still see an unauthenticated request.
func Authenticator(codec *credential.Codec, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := TokenFromRequest(r)
			if err != nil {
				if !errors.Is(err, ErrNoToken) {
					r = withAuthError(r, err)
				}
				next.ServeHTTP(w, r)
				return
			}

			cred, err := codec.Verify(raw)
			if err != nil {
				logger.Debug("credential rejected", zap.Error(err))
				ClearTokenCookie(w, secure)
				next.ServeHTTP(w, withAuthError(r, err))
				return
			}

			next.ServeHTTP(w, withCredential(r, cred))
		})
	}
}

// CurrentCredential returns the verified credential and a found flag.
func CurrentCredential(r *http.Request) (credential.Credential, bool) {
	cred, ok := r.Context().Value(credentialKey).(credential.Credential)
	return cred, ok
}

// CurrentAuthorization returns the request's authorization, which is
// access.Anonymous when no credential is present.
func CurrentAuthorization(r *http.Request) access.Authorization {
	if cred, ok := CurrentCredential(r); ok {
		return cred.Auth
	}
	return access.Anonymous
}

// AuthError returns the credential verification error recorded by
// Authenticator, if any.
func AuthError(r *http.Request) error {
	err, _ := r.Context().Value(authErrorKey).(error)
	return err
}

// RequireAtLeast guards a route with a minimum access level. Requests
// without a credential get 401; authenticated requests below the level
// get 403. Responses never say why a token was rejected.
func RequireAtLeast(min access.AccessLevel) func(http.Handler) http.Handler {
	return RequireAuthorization(access.ForLevel(min))
}

// RequireAuthorization guards a route with a full minimum authorization,
// for routes pinned to a specific committee or committee role.
func RequireAuthorization(min access.Authorization) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred, ok := CurrentCredential(r)
			if !ok {
				if access.Anonymous.AtLeast(min) {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !cred.Auth.AtLeast(min) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithTestCredential injects a credential into the request context.
// Handler tests use this to bypass the Authenticator middleware.
func WithTestCredential(r *http.Request, cred credential.Credential) *http.Request {
	return withCredential(r, cred)
}

func withCredential(r *http.Request, cred credential.Credential) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), credentialKey, cred))
}

func withAuthError(r *http.Request, err error) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), authErrorKey, err))
}
