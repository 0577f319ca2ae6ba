// internal/app/features/logout/routes.go
package logout

import "github.com/go-chi/chi/v5"

// Routes returns the router for logout. The route is public: clearing a
// cookie that is not there is harmless, and requiring a valid credential
// would trap people holding an expired one.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeLogout)
	return r
}
