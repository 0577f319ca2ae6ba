// internal/app/features/userinfo/handler.go
package userinfo

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/marathonhub/internal/app/system/auth"
)

// Handler serves the current credential's identity and authorization.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

// ServeUserInfo returns JSON describing the request's credential.
//
// Response format for an authenticated request:
//
//	{
//	  "isAuthenticated": true,
//	  "person_id": "...",
//	  "auth_source": "linkblue",
//	  "dbRole": "committee",
//	  "access_level": 4,
//	  "committee_role": "chair",
//	  "committee": "fundraising",
//	  "team_ids": [...],
//	  "captain_of_team_ids": [...]
//	}
//
// Unauthenticated requests get {"isAuthenticated": false}. The claim
// names mirror the token payload so clients can use one decoder.
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	cred, ok := auth.CurrentCredential(r)
	if !ok {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"isAuthenticated": false,
		})
		return
	}

	resp := map[string]any{
		"isAuthenticated":     true,
		"person_id":           cred.Subject,
		"auth_source":         string(cred.Source),
		"dbRole":              string(cred.Auth.DbRole),
		"access_level":        int(cred.Auth.AccessLevel),
		"team_ids":            cred.TeamIDs,
		"captain_of_team_ids": cred.CaptainOfTeamIDs,
	}
	if !cred.Auth.Membership.IsZero() {
		resp["committee_role"] = string(cred.Auth.Membership.Role)
		resp["committee"] = cred.Auth.Membership.Committee
	}
	_ = json.NewEncoder(w).Encode(resp)
}
