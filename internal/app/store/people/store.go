// internal/app/store/people/store.go
package people

import (
	"context"
	"errors"
	"fmt"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/marathonhub/internal/app/system/access"
	"github.com/dalemusser/marathonhub/internal/app/system/normalize"
	"github.com/dalemusser/marathonhub/internal/domain/models"
)

var (
	// ErrNotFound is returned by the lookup methods when no person matches.
	ErrNotFound = errors.New("person not found")

	// ErrDuplicateEmail is returned when creating a person whose email
	// already exists.
	ErrDuplicateEmail = errors.New("a person with this email already exists")

	errMissingEmail = errors.New("person must have an email")
)

// Store manages person records in MongoDB.
type Store struct {
	c *mongo.Collection
}

// New creates a people Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("people")}
}

// GetByID loads a person by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Person, error) {
	var p models.Person
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

// FindByAuthID looks up a person by the external identifier an auth
// source assigned them.
func (s *Store) FindByAuthID(ctx context.Context, source models.AuthSource, externalID string) (*models.Person, error) {
	var p models.Person
	filter := bson.M{"auth_ids." + string(source): externalID}
	if err := s.c.FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

// FindByLinkblue looks up a person by their university login alias,
// case-insensitively.
func (s *Store) FindByLinkblue(ctx context.Context, linkblue string) (*models.Person, error) {
	var p models.Person
	if err := s.c.FindOne(ctx, bson.M{"linkblue_ci": text.Fold(linkblue)}).Decode(&p); err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

// FindByEmail looks up a person by case-insensitive email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*models.Person, error) {
	var p models.Person
	if err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(normalize.Email(email))}).Decode(&p); err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

// Create inserts a new person after normalizing and validating fields.
// New people default to the public role; role state is managed elsewhere
// (committee rosters, team assignment), never by the login path.
func (s *Store) Create(ctx context.Context, p models.Person) (models.Person, error) {
	p.ID = primitive.NewObjectID()
	p.Email = normalize.Email(p.Email)
	if p.Email == "" {
		return models.Person{}, errMissingEmail
	}
	p.EmailCI = text.Fold(p.Email)
	if p.Linkblue != nil {
		ci := text.Fold(*p.Linkblue)
		p.LinkblueCI = &ci
	}
	if p.DbRole == "" {
		p.DbRole = access.RolePublic
	}
	if !p.DbRole.IsValid() {
		return models.Person{}, fmt.Errorf("invalid db role %q", p.DbRole)
	}
	if _, err := p.Membership(); err != nil {
		return models.Person{}, err
	}
	if p.AuthIDs == nil {
		p.AuthIDs = map[string]string{}
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Person{}, ErrDuplicateEmail
		}
		return models.Person{}, err
	}
	return p, nil
}

// Replace persists the full person document, re-deriving the folded
// lookup fields and bumping the update timestamp.
func (s *Store) Replace(ctx context.Context, p *models.Person) error {
	p.Email = normalize.Email(p.Email)
	if p.Email == "" {
		return errMissingEmail
	}
	p.EmailCI = text.Fold(p.Email)
	if p.Linkblue != nil {
		ci := text.Fold(*p.Linkblue)
		p.LinkblueCI = &ci
	} else {
		p.LinkblueCI = nil
	}
	p.UpdatedAt = time.Now()

	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
