// internal/app/system/credential/credential.go
package credential

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dalemusser/marathonhub/internal/app/system/access"
	"github.com/dalemusser/marathonhub/internal/domain/models"
)

// Credential errors. Handlers treat all of them as "not authenticated"
// toward the client; the distinction exists for logging and tests, never
// for the response body (an attacker must not learn expired vs forged).
var (
	ErrMissingSubject      = errors.New("credential: subject is required")
	ErrBadSignature        = errors.New("credential: signature verification failed")
	ErrExpired             = errors.New("credential: token expired")
	ErrIssuerMismatch      = errors.New("credential: wrong issuer")
	ErrMalformedPayload    = errors.New("credential: malformed payload")
	ErrPrivilegeEscalation = errors.New("credential: anonymous subject above public access")
)

// Claims is the wire payload of a minted credential. Field names are
// fixed: clients of the mobile app depend on them. dbRole keeps its
// historical camelCase name; everything else is snake_case.
type Claims struct {
	jwt.RegisteredClaims

	AuthSource       string   `json:"auth_source"`
	DbRole           string   `json:"dbRole"`
	AccessLevel      int      `json:"access_level"`
	CommitteeRole    string   `json:"committee_role,omitempty"`
	Committee        string   `json:"committee,omitempty"`
	TeamIDs          []string `json:"team_ids,omitempty"`
	CaptainOfTeamIDs []string `json:"captain_of_team_ids,omitempty"`
}

// Credential is the verified, in-memory form of a token.
type Credential struct {
	Subject          string
	Source           models.AuthSource
	Auth             access.Authorization
	TeamIDs          []string
	CaptainOfTeamIDs []string
	ExpiresAt        time.Time
}

// Codec mints and verifies credentials with a process-wide HMAC key.
// The key and issuer are fixed at startup; Verify does no I/O and is
// safe for concurrent use.
type Codec struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// New builds a Codec. The secret must be non-empty; the issuer string is
// embedded in every token and checked on verify.
func New(secret []byte, issuer string, ttl time.Duration) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("credential: signing secret is empty")
	}
	if issuer == "" {
		return nil, errors.New("credential: issuer is empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Codec{secret: secret, issuer: issuer, ttl: ttl}, nil
}

// Issuer returns the issuer string embedded in minted tokens.
func (c *Codec) Issuer() string { return c.issuer }

// TTL returns the lifetime of minted tokens.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Mint signs a credential for the given subject. The expiry is fixed at
// mint time; the only way to extend a credential is to mint a new one.
func (c *Codec) Mint(subject string, source models.AuthSource, auth access.Authorization, teamIDs, captainOfTeamIDs []string) (string, error) {
	if subject == "" {
		return "", ErrMissingSubject
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		AuthSource:       string(source),
		DbRole:           string(auth.DbRole),
		AccessLevel:      int(auth.AccessLevel),
		CommitteeRole:    string(auth.Membership.Role),
		Committee:        auth.Membership.Committee,
		TeamIDs:          teamIDs,
		CaptainOfTeamIDs: captainOfTeamIDs,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("credential: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, expiry, and issuer of a raw token, then
// validates every payload field against its enumerated domain. The
// claims come from an untrusted party until the signature has been
// checked, so nothing is assumed about their shape.
func (c *Codec) Verify(raw string) (Credential, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Credential{}, classifyParseError(err)
	}
	return c.validate(&claims)
}

func (c *Codec) keyFunc(_ *jwt.Token) (any, error) {
	return c.secret, nil
}

// classifyParseError maps the jwt library's error chain onto the codec's
// error taxonomy.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return fmt.Errorf("%w: %v", ErrIssuerMismatch, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
}

func (c *Codec) validate(claims *Claims) (Credential, error) {
	if claims.Subject == "" {
		return Credential{}, fmt.Errorf("%w: missing sub", ErrMalformedPayload)
	}
	if !models.IsValidAuthSource(claims.AuthSource) {
		return Credential{}, fmt.Errorf("%w: unknown auth_source %q", ErrMalformedPayload, claims.AuthSource)
	}
	role := access.DbRole(claims.DbRole)
	if !role.IsValid() {
		return Credential{}, fmt.Errorf("%w: unknown dbRole %q", ErrMalformedPayload, claims.DbRole)
	}
	level := access.AccessLevel(claims.AccessLevel)
	if !level.IsValid() {
		return Credential{}, fmt.Errorf("%w: access_level %d out of range", ErrMalformedPayload, claims.AccessLevel)
	}

	membership, err := access.NewMembership(access.CommitteeRole(claims.CommitteeRole), claims.Committee)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	source := models.AuthSource(claims.AuthSource)
	if source.IsAnonymous() && level > access.Public {
		return Credential{}, fmt.Errorf("%w: auth_source %q at level %v", ErrPrivilegeEscalation, source, level)
	}

	cred := Credential{
		Subject: claims.Subject,
		Source:  source,
		Auth: access.Authorization{
			DbRole:      role,
			AccessLevel: level,
			Membership:  membership,
		},
		TeamIDs:          claims.TeamIDs,
		CaptainOfTeamIDs: claims.CaptainOfTeamIDs,
	}
	if claims.ExpiresAt != nil {
		cred.ExpiresAt = claims.ExpiresAt.Time
	}
	return cred, nil
}
