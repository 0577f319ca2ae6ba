// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/dalemusser/marathonhub/internal/app/system/auth"
)

// Handler clears the credential cookie. Credentials are stateless, so
// logout is purely client-side: there is nothing to revoke server-side.
type Handler struct {
	Log *zap.Logger

	// SecureCookies must match the flag used when the cookie was set,
	// or some browsers refuse to clear it.
	SecureCookies bool
}

func NewHandler(secureCookies bool, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, SecureCookies: secureCookies}
}

// ServeLogout handles GET /logout.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if cred, ok := auth.CurrentCredential(r); ok {
		h.Log.Info("person logged out", zap.String("person_id", cred.Subject))
	}

	auth.ClearTokenCookie(w, h.SecureCookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
