// internal/domain/models/authsources.go
package models

// AuthSource identifies how a credential's subject was authenticated.
// It is stored as the key of Person.AuthIDs and embedded in every minted
// credential as the auth_source claim.
type AuthSource string

const (
	// AuthSourceLinkblue is the university identity provider (OIDC).
	// The external ID is the provider's object identifier claim.
	AuthSourceLinkblue AuthSource = "linkblue"

	// AuthSourceAnonymous marks a subject that never proved an identity.
	// Credentials from this source may not exceed public access.
	AuthSourceAnonymous AuthSource = "anonymous"

	// AuthSourceDemo is the canned demo account used at recruiting
	// events. Demo subjects are real stored people and are not
	// anonymous-class.
	AuthSourceDemo AuthSource = "demo"

	// AuthSourceNone is the zero source attached to unauthenticated
	// requests.
	AuthSourceNone AuthSource = "none"
)

// AllAuthSources lists every recognized source, used for claim validation.
var AllAuthSources = []AuthSource{
	AuthSourceLinkblue,
	AuthSourceAnonymous,
	AuthSourceDemo,
	AuthSourceNone,
}

// IsValidAuthSource checks whether a value is a recognized auth source.
func IsValidAuthSource(value string) bool {
	for _, s := range AllAuthSources {
		if string(s) == value {
			return true
		}
	}
	return false
}

// IsAnonymous reports whether the source is anonymous-class, i.e. the
// subject never proved an identity and must stay at public access.
func (s AuthSource) IsAnonymous() bool {
	return s == AuthSourceAnonymous
}
