// internal/app/features/authoidc/handler.go
package authoidc

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"

	"github.com/dalemusser/marathonhub/internal/app/store/loginflow"
	"github.com/dalemusser/marathonhub/internal/app/system/auth"
	"github.com/dalemusser/marathonhub/internal/app/system/credential"
	"github.com/dalemusser/marathonhub/internal/app/system/identity"
	"github.com/dalemusser/marathonhub/internal/app/system/timeouts"
	"github.com/dalemusser/marathonhub/internal/domain/models"
)

// Provider is the OIDC client surface the handler needs. Satisfied by
// oidcclient.Provider; tests substitute a stub.
type Provider interface {
	IsConfigured() bool
	AuthCodeURL(ctx context.Context, state, codeVerifier string) (string, error)
	Exchange(ctx context.Context, code, codeVerifier string) (map[string]any, error)
}

// FlowStore is the login flow session surface the handler needs.
type FlowStore interface {
	Create(ctx context.Context, redirectTo string) (loginflow.Session, error)
	Consume(ctx context.Context, sessionID string) (loginflow.Session, error)
}

// Handler runs the OIDC login flow: the redirect to the provider and
// the form-post callback that turns the provider's answer into a
// credential cookie.
type Handler struct {
	Log      *zap.Logger
	Provider Provider
	Flows    FlowStore
	Resolver *identity.Resolver
	Codec    *credential.Codec

	// HandleSuffix is the email suffix stripped from the upn claim to
	// derive the linkblue alias (e.g. "@uky.edu").
	HandleSuffix string

	// SecureCookies controls the Secure flag on the token cookie.
	SecureCookies bool
}

// ServeLogin initiates the login flow: persist a flow session, then
// redirect the browser to the provider with the session ID as state and
// the verifier's S256 challenge as the PKCE parameter.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.Provider.IsConfigured() {
		h.Log.Warn("OIDC login requested but provider not configured")
		http.Redirect(w, r, "/login?error=oidc_not_configured", http.StatusSeeOther)
		return
	}

	returnURL := query.Get(r, "return")
	if returnURL == "" {
		returnURL = sameOriginReferer(r)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sess, err := h.Flows.Create(ctx, returnURL)
	if err != nil {
		h.Log.Error("failed to create login flow session", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	dest, err := h.Provider.AuthCodeURL(r.Context(), sess.SessionID, sess.CodeVerifier)
	if err != nil {
		h.Log.Error("failed to build authorization URL", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	h.Log.Debug("initiating OIDC login flow",
		zap.String("session_id", sess.SessionID),
		zap.String("return_url", returnURL))

	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// ServeCallback handles the provider's form-post response. The state
// names a flow session, which is consumed exactly once; then the code
// is exchanged with the stored verifier, the asserted identity resolved
// to a person, and a fresh credential set as the token cookie.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Log.Warn("unparseable OIDC callback", zap.Error(err))
		http.Redirect(w, r, "/login?error=invalid_callback", http.StatusSeeOther)
		return
	}

	if errParam := r.PostFormValue("error"); errParam != "" {
		h.Log.Warn("provider returned an error",
			zap.String("error", errParam),
			zap.String("description", r.PostFormValue("error_description")))
		http.Redirect(w, r, "/login?error=provider_denied", http.StatusSeeOther)
		return
	}

	state := r.PostFormValue("state")
	if state == "" {
		h.Log.Warn("OIDC callback without state")
		http.Error(w, "missing state", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sess, err := h.Flows.Consume(ctx, state)
	if errors.Is(err, loginflow.ErrSessionNotFound) {
		h.Log.Warn("unknown, expired, or replayed login flow session")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.Log.Error("failed to consume login flow session", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	code := r.PostFormValue("code")
	if code == "" {
		h.Log.Warn("OIDC callback without code")
		http.Redirect(w, r, "/login?error=invalid_code", http.StatusSeeOther)
		return
	}

	claims, err := h.Provider.Exchange(r.Context(), code, sess.CodeVerifier)
	if err != nil {
		h.Log.Error("code exchange failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=token_exchange", http.StatusSeeOther)
		return
	}

	pi, err := identityFromClaims(claims, h.HandleSuffix)
	if err != nil {
		h.Log.Error("provider claims rejected", zap.Error(err))
		http.Redirect(w, r, "/login?error=bad_claims", http.StatusSeeOther)
		return
	}

	resolveCtx, cancelResolve := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancelResolve()

	person, err := h.Resolver.Resolve(resolveCtx, pi)
	if errors.Is(err, identity.ErrMissingEmail) {
		h.Log.Warn("provider asserted an identity without an email",
			zap.String("external_id", pi.ExternalID))
		http.Redirect(w, r, "/login?error=missing_email", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.Log.Error("failed to resolve person", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	authz, err := person.Authorization()
	if err != nil {
		h.Log.Error("stored role state is invalid",
			zap.Error(err),
			zap.String("person_id", person.ID.Hex()))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	token, err := h.Codec.Mint(person.ID.Hex(), models.AuthSourceLinkblue, authz,
		person.TeamIDHexes(), person.CaptainOfTeamIDHexes())
	if err != nil {
		h.Log.Error("failed to mint credential", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	auth.SetTokenCookie(w, token, time.Now().Add(h.Codec.TTL()), h.SecureCookies)

	h.Log.Info("person logged in",
		zap.String("person_id", person.ID.Hex()),
		zap.String("access_level", authz.AccessLevel.String()))

	http.Redirect(w, r, urlutil.SafeReturn(sess.RedirectTo, "", "/"), http.StatusSeeOther)
}

// sameOriginReferer returns the Referer's path and query when the
// Referer shares the request's host, "" otherwise. Cross-origin
// referers never become redirect targets.
func sameOriginReferer(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if !strings.EqualFold(u.Host, r.Host) {
		return ""
	}
	return u.RequestURI()
}
