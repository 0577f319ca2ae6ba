// internal/app/features/authoidc/routes.go
package authoidc

import "github.com/go-chi/chi/v5"

// Routes returns the router for OIDC login endpoints.
// These routes are public (no authentication required).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// GET /auth/oidc - redirect to the provider
	r.Get("/", h.ServeLogin)

	// POST /auth/oidc/callback - form-post response from the provider
	r.Post("/callback", h.ServeCallback)

	return r
}
