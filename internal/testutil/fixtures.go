// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/marathonhub/internal/app/system/access"
	"github.com/dalemusser/marathonhub/internal/domain/models"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreatePerson inserts a person with the public role.
func (f *Fixtures) CreatePerson(ctx context.Context, firstName, lastName, email string) models.Person {
	return f.CreatePersonWithRole(ctx, firstName, lastName, email, "public")
}

// CreatePersonWithRole inserts a person with the given role.
func (f *Fixtures) CreatePersonWithRole(ctx context.Context, firstName, lastName, email string, role access.DbRole) models.Person {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Person{
		ID:        primitive.NewObjectID(),
		FirstName: &firstName,
		LastName:  &lastName,
		Email:     email,
		EmailCI:   text.Fold(email),
		DbRole:    role,
		AuthIDs:   map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("people").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test person: %v", err)
	}
	return p
}

// CreateLinkbluePerson inserts a person with a linkblue alias and an
// external auth identifier, the way an SSO login would have created them.
func (f *Fixtures) CreateLinkbluePerson(ctx context.Context, firstName, lastName, email, linkblue, externalID string) models.Person {
	f.t.Helper()

	now := time.Now().UTC()
	linkblueCI := text.Fold(linkblue)
	p := models.Person{
		ID:         primitive.NewObjectID(),
		FirstName:  &firstName,
		LastName:   &lastName,
		Email:      email,
		EmailCI:    text.Fold(email),
		Linkblue:   &linkblue,
		LinkblueCI: &linkblueCI,
		DbRole:     "public",
		AuthIDs:    map[string]string{string(models.AuthSourceLinkblue): externalID},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("people").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test person: %v", err)
	}
	return p
}

// CreateCommitteeMember inserts a committee person with the given
// committee assignment.
func (f *Fixtures) CreateCommitteeMember(ctx context.Context, email string, committeeRole access.CommitteeRole, committee string) models.Person {
	f.t.Helper()

	now := time.Now().UTC()
	role := string(committeeRole)
	p := models.Person{
		ID:            primitive.NewObjectID(),
		Email:         email,
		EmailCI:       text.Fold(email),
		DbRole:        access.RoleCommittee,
		CommitteeRole: &role,
		Committee:     &committee,
		AuthIDs:       map[string]string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("people").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test committee member: %v", err)
	}
	return p
}
