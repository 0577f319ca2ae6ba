// internal/app/system/access/access.go
package access

import (
	"errors"
	"fmt"
)

// AccessLevel is the coarse-grained permission tier used for "at least"
// comparisons by route guards. The ordering is fixed; levels are compared
// numerically, never by role name.
type AccessLevel int

const (
	None AccessLevel = iota
	Public
	TeamMember
	TeamCaptain
	Committee
	CommitteeChairOrCoordinator
	Admin
)

// String returns the level name used in logs and error messages.
func (l AccessLevel) String() string {
	switch l {
	case None:
		return "none"
	case Public:
		return "public"
	case TeamMember:
		return "team-member"
	case TeamCaptain:
		return "team-captain"
	case Committee:
		return "committee"
	case CommitteeChairOrCoordinator:
		return "committee-chair-or-coordinator"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("access-level(%d)", int(l))
	}
}

// IsValid reports whether l is one of the enumerated levels.
func (l AccessLevel) IsValid() bool {
	return l >= None && l <= Admin
}

// DbRole is the stored categorical role of a person, independent of the
// derived numeric access level.
type DbRole string

const (
	RoleNone        DbRole = "none"
	RolePublic      DbRole = "public"
	RoleTeamMember  DbRole = "team-member"
	RoleTeamCaptain DbRole = "team-captain"
	RoleCommittee   DbRole = "committee"
)

// IsValid reports whether r is one of the enumerated roles.
func (r DbRole) IsValid() bool {
	switch r {
	case RoleNone, RolePublic, RoleTeamMember, RoleTeamCaptain, RoleCommittee:
		return true
	default:
		return false
	}
}

// CommitteeRole is a person's position within a committee.
type CommitteeRole string

const (
	CommitteeChair       CommitteeRole = "chair"
	CommitteeCoordinator CommitteeRole = "coordinator"
	CommitteeMemberRole  CommitteeRole = "member"
)

// IsValid reports whether r is one of the enumerated committee roles.
func (r CommitteeRole) IsValid() bool {
	switch r {
	case CommitteeChair, CommitteeCoordinator, CommitteeMemberRole:
		return true
	default:
		return false
	}
}

// TechCommittee is the committee whose members always hold Admin access.
const TechCommittee = "tech-committee"

var (
	// ErrIllegalRole reports a DbRole outside the enumerated set. Stored
	// data should never contain one; hitting this path means corrupted
	// data or a logic defect, not bad user input.
	ErrIllegalRole = errors.New("illegal db role")

	// ErrInvalidRoleCombination reports a committee role without a
	// committee or vice versa. The two are set together or not at all.
	ErrInvalidRoleCombination = errors.New("committee role and committee must be set together")
)

// Membership identifies a person's committee position. The zero value
// means no committee affiliation. A non-zero Membership always carries
// both the role and the committee name, which is what makes the
// both-or-neither rule structural rather than a scattered runtime check.
type Membership struct {
	Role      CommitteeRole
	Committee string
}

// IsZero reports whether m represents no committee affiliation.
func (m Membership) IsZero() bool {
	return m.Role == "" && m.Committee == ""
}

// NewMembership builds a Membership from two independently nullable
// stored fields, enforcing the both-or-neither invariant.
func NewMembership(role CommitteeRole, committee string) (Membership, error) {
	if (role == "") != (committee == "") {
		return Membership{}, fmt.Errorf("%w: role=%q committee=%q", ErrInvalidRoleCombination, role, committee)
	}
	if role != "" && !role.IsValid() {
		return Membership{}, fmt.Errorf("%w: committee role %q", ErrIllegalRole, role)
	}
	return Membership{Role: role, Committee: committee}, nil
}

// Authorization is the derived permission state carried by a credential.
// Construct via Derive or the well-known constants; never by hand.
type Authorization struct {
	DbRole      DbRole
	AccessLevel AccessLevel
	Membership  Membership
}

// Anonymous is the authorization attached to requests with no credential.
var Anonymous = Authorization{DbRole: RoleNone, AccessLevel: None}

// BaselineLevel maps a DbRole to its baseline AccessLevel. For
// RoleCommittee the committee role decides between the plain Committee
// level and CommitteeChairOrCoordinator.
func BaselineLevel(role DbRole, committeeRole CommitteeRole) (AccessLevel, error) {
	switch role {
	case RoleNone:
		return None, nil
	case RolePublic:
		return Public, nil
	case RoleTeamMember:
		return TeamMember, nil
	case RoleTeamCaptain:
		return TeamCaptain, nil
	case RoleCommittee:
		if committeeRole == CommitteeChair || committeeRole == CommitteeCoordinator {
			return CommitteeChairOrCoordinator, nil
		}
		return Committee, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrIllegalRole, role)
	}
}

// Derive computes the Authorization for a stored role state. The baseline
// level comes from BaselineLevel; committee chairs and anyone on the tech
// committee are promoted to Admin regardless of baseline.
func Derive(role DbRole, m Membership) (Authorization, error) {
	level, err := BaselineLevel(role, m.Role)
	if err != nil {
		return Authorization{}, err
	}
	if m.Role == CommitteeChair || m.Committee == TechCommittee {
		level = Admin
	}
	return Authorization{DbRole: role, AccessLevel: level, Membership: m}, nil
}

// AtLeast reports whether a satisfies the minimum authorization min.
// The level comparison is numeric; when min pins a committee role or a
// committee, a must match it exactly. All conditions are conjunctive.
// This is the sole comparison route guards use.
func (a Authorization) AtLeast(min Authorization) bool {
	if a.AccessLevel < min.AccessLevel {
		return false
	}
	if min.Membership.Role != "" && a.Membership.Role != min.Membership.Role {
		return false
	}
	if min.Membership.Committee != "" && a.Membership.Committee != min.Membership.Committee {
		return false
	}
	return true
}

// ForLevel returns the canonical Authorization used as a route-guard
// threshold for the given level. Levels at Committee and above use the
// committee DbRole, mirroring how such levels arise in practice.
func ForLevel(level AccessLevel) Authorization {
	switch level {
	case None:
		return Anonymous
	case Public:
		return Authorization{DbRole: RolePublic, AccessLevel: Public}
	case TeamMember:
		return Authorization{DbRole: RoleTeamMember, AccessLevel: TeamMember}
	case TeamCaptain:
		return Authorization{DbRole: RoleTeamCaptain, AccessLevel: TeamCaptain}
	case Committee:
		return Authorization{DbRole: RoleCommittee, AccessLevel: Committee}
	case CommitteeChairOrCoordinator:
		return Authorization{DbRole: RoleCommittee, AccessLevel: CommitteeChairOrCoordinator}
	case Admin:
		return Authorization{DbRole: RoleCommittee, AccessLevel: Admin}
	default:
		return Anonymous
	}
}
