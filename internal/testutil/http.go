// internal/testutil/http.go
package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/marathonhub/internal/app/system/access"
	"github.com/dalemusser/marathonhub/internal/app/system/auth"
	"github.com/dalemusser/marathonhub/internal/app/system/credential"
	"github.com/dalemusser/marathonhub/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// CredentialAt builds a verified credential at the given access level,
// as if the request had carried a valid token.
func CredentialAt(level access.AccessLevel) credential.Credential {
	return credential.Credential{
		Subject:   primitive.NewObjectID().Hex(),
		Source:    models.AuthSourceLinkblue,
		Auth:      access.ForLevel(level),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

// WithCredential injects a credential into the request context,
// bypassing the authenticator middleware.
func WithCredential(r *http.Request, cred credential.Credential) *http.Request {
	return auth.WithTestCredential(r, cred)
}
