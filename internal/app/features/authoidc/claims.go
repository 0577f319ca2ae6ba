// internal/app/features/authoidc/claims.go
package authoidc

import (
	"errors"
	"fmt"

	"github.com/dalemusser/marathonhub/internal/app/system/identity"
	"github.com/dalemusser/marathonhub/internal/app/system/normalize"
	"github.com/dalemusser/marathonhub/internal/domain/models"
)

// ErrBadClaims means the provider returned claims whose shape this
// handler does not understand.
var ErrBadClaims = errors.New("unexpected claim shape from provider")

// identityFromClaims validates the ID token claims field by field and
// assembles the provider identity. A claim that is present with the
// wrong type is an error, not a silent skip: a shape change on the
// provider side should fail loudly rather than degrade record matching.
func identityFromClaims(claims map[string]any, handleSuffix string) (identity.ProviderIdentity, error) {
	oid, err := stringClaim(claims, "oid")
	if err != nil {
		return identity.ProviderIdentity{}, err
	}
	if oid == "" {
		// Some providers only send the registered subject claim.
		if oid, err = stringClaim(claims, "sub"); err != nil {
			return identity.ProviderIdentity{}, err
		}
	}
	if oid == "" {
		return identity.ProviderIdentity{}, fmt.Errorf("%w: no oid or sub claim", ErrBadClaims)
	}

	email, err := stringClaim(claims, "email")
	if err != nil {
		return identity.ProviderIdentity{}, err
	}
	givenName, err := stringClaim(claims, "given_name")
	if err != nil {
		return identity.ProviderIdentity{}, err
	}
	familyName, err := stringClaim(claims, "family_name")
	if err != nil {
		return identity.ProviderIdentity{}, err
	}
	upn, err := stringClaim(claims, "upn")
	if err != nil {
		return identity.ProviderIdentity{}, err
	}

	return identity.ProviderIdentity{
		Source:     models.AuthSourceLinkblue,
		ExternalID: oid,
		Email:      email,
		FirstName:  givenName,
		LastName:   familyName,
		Linkblue:   normalize.Linkblue(upn, handleSuffix),
	}, nil
}

// stringClaim returns the claim as a string, "" if absent, and an error
// if present with a non-string type.
func stringClaim(claims map[string]any, name string) (string, error) {
	v, ok := claims[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: claim %q is %T, want string", ErrBadClaims, name, v)
	}
	return s, nil
}
