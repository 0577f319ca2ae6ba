// internal/domain/models/person.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/marathonhub/internal/app/system/access"
)

// Terminology: User Identifiers
//   - PersonID / person_id: The MongoDB ObjectID (_id) that uniquely identifies a person record
//   - AuthIDs: external identifiers assigned by identity providers, keyed by auth source
//   - Linkblue: the university login alias derived from the principal-name claim

// Person is a participant, captain, or committee member. Records are
// created on first login and reconciled against the provider's claims on
// every subsequent login; they are never deleted by the auth core.
type Person struct {
	ID primitive.ObjectID `bson:"_id,omitempty"`

	// AuthIDs maps an auth source to the external identifier the
	// provider uses for this person (e.g. the OIDC oid claim).
	AuthIDs map[string]string `bson:"auth_ids,omitempty"`

	FirstName *string `bson:"first_name,omitempty"`
	LastName  *string `bson:"last_name,omitempty"`

	Email   string `bson:"email"`
	EmailCI string `bson:"email_ci"` // case-folded for unique lookups

	Linkblue   *string `bson:"linkblue,omitempty"`
	LinkblueCI *string `bson:"linkblue_ci,omitempty"`

	// Stored role state. CommitteeRole and Committee are set together
	// or not at all; access.NewMembership enforces that on read.
	DbRole        access.DbRole `bson:"db_role"`
	CommitteeRole *string       `bson:"committee_role,omitempty"`
	Committee     *string       `bson:"committee,omitempty"`

	TeamIDs          []primitive.ObjectID `bson:"team_ids,omitempty"`
	CaptainOfTeamIDs []primitive.ObjectID `bson:"captain_of_team_ids,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Membership assembles the person's committee affiliation, enforcing the
// both-or-neither invariant on the two stored fields.
func (p *Person) Membership() (access.Membership, error) {
	var role access.CommitteeRole
	if p.CommitteeRole != nil {
		role = access.CommitteeRole(*p.CommitteeRole)
	}
	var committee string
	if p.Committee != nil {
		committee = *p.Committee
	}
	return access.NewMembership(role, committee)
}

// Authorization derives the person's authorization from the stored role
// state. A failure here means corrupted stored data, not bad user input.
func (p *Person) Authorization() (access.Authorization, error) {
	m, err := p.Membership()
	if err != nil {
		return access.Authorization{}, err
	}
	return access.Derive(p.DbRole, m)
}

// TeamIDHexes returns the person's team memberships as hex strings for
// embedding in a credential.
func (p *Person) TeamIDHexes() []string {
	return hexIDs(p.TeamIDs)
}

// CaptainOfTeamIDHexes returns the teams the person captains as hex
// strings for embedding in a credential.
func (p *Person) CaptainOfTeamIDHexes() []string {
	return hexIDs(p.CaptainOfTeamIDs)
}

func hexIDs(ids []primitive.ObjectID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}
