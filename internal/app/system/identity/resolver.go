// internal/app/system/identity/resolver.go
//
// Package identity maps a provider-asserted identity onto a person
// record, creating one on first login and reconciling stored fields on
// every later login.
package identity

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dalemusser/marathonhub/internal/app/store/people"
	"github.com/dalemusser/marathonhub/internal/app/system/normalize"
	"github.com/dalemusser/marathonhub/internal/domain/models"
)

// ErrMissingEmail means the provider asserted an identity with no email
// and no existing record matched, so a person cannot be created.
var ErrMissingEmail = errors.New("identity: provider claims carry no email")

// Directory is the person lookup surface the resolver needs. The people
// store satisfies it; tests use an in-memory fake.
type Directory interface {
	FindByAuthID(ctx context.Context, source models.AuthSource, externalID string) (*models.Person, error)
	FindByLinkblue(ctx context.Context, linkblue string) (*models.Person, error)
	FindByEmail(ctx context.Context, email string) (*models.Person, error)
	Create(ctx context.Context, p models.Person) (models.Person, error)
	Replace(ctx context.Context, p *models.Person) error
}

// ProviderIdentity is what the identity provider asserted about the
// person logging in, already extracted from the token claims.
type ProviderIdentity struct {
	Source     models.AuthSource
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
	Linkblue   string
}

// Resolver finds or creates the person behind a provider identity.
type Resolver struct {
	dir    Directory
	logger *zap.Logger
}

// New creates a Resolver.
func New(dir Directory, logger *zap.Logger) *Resolver {
	return &Resolver{dir: dir, logger: logger}
}

// Resolve locates the person for a provider identity and reconciles the
// stored record with the asserted claims. Lookups run in order of
// identifier strength: the provider's own stable ID, then the linkblue
// alias, then email. Only when all three miss is a new person created.
func (r *Resolver) Resolve(ctx context.Context, pi ProviderIdentity) (*models.Person, error) {
	p, err := r.lookup(ctx, pi)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return r.create(ctx, pi)
	}
	if err := r.reconcile(ctx, p, pi); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Resolver) lookup(ctx context.Context, pi ProviderIdentity) (*models.Person, error) {
	if pi.ExternalID != "" {
		p, err := r.dir.FindByAuthID(ctx, pi.Source, pi.ExternalID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, people.ErrNotFound) {
			return nil, fmt.Errorf("identity: lookup by auth ID: %w", err)
		}
	}

	if pi.Linkblue != "" {
		p, err := r.dir.FindByLinkblue(ctx, pi.Linkblue)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, people.ErrNotFound) {
			return nil, fmt.Errorf("identity: lookup by linkblue: %w", err)
		}
	}

	if pi.Email != "" {
		p, err := r.dir.FindByEmail(ctx, pi.Email)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, people.ErrNotFound) {
			return nil, fmt.Errorf("identity: lookup by email: %w", err)
		}
	}

	return nil, nil
}

func (r *Resolver) create(ctx context.Context, pi ProviderIdentity) (*models.Person, error) {
	if normalize.Email(pi.Email) == "" {
		return nil, ErrMissingEmail
	}

	p := models.Person{
		Email:   pi.Email,
		AuthIDs: map[string]string{},
	}
	if pi.ExternalID != "" {
		p.AuthIDs[string(pi.Source)] = pi.ExternalID
	}
	if name := normalize.Name(pi.FirstName); name != "" {
		p.FirstName = &name
	}
	if name := normalize.Name(pi.LastName); name != "" {
		p.LastName = &name
	}
	if pi.Linkblue != "" {
		lb := pi.Linkblue
		p.Linkblue = &lb
	}

	created, err := r.dir.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("identity: create person: %w", err)
	}

	r.logger.Info("created person on first login",
		zap.String("person_id", created.ID.Hex()),
		zap.String("auth_source", string(pi.Source)))
	return &created, nil
}

// reconcile copies changed provider-asserted fields onto the stored
// record and persists only when something actually changed. Role state
// is never touched here: the provider asserts who the person is, not
// what they may do.
func (r *Resolver) reconcile(ctx context.Context, p *models.Person, pi ProviderIdentity) error {
	changed := false

	if pi.ExternalID != "" {
		if p.AuthIDs == nil {
			p.AuthIDs = map[string]string{}
		}
		if p.AuthIDs[string(pi.Source)] != pi.ExternalID {
			p.AuthIDs[string(pi.Source)] = pi.ExternalID
			changed = true
		}
	}

	if email := normalize.Email(pi.Email); email != "" && p.Email != email {
		p.Email = email
		changed = true
	}
	if name := normalize.Name(pi.FirstName); name != "" && (p.FirstName == nil || *p.FirstName != name) {
		p.FirstName = &name
		changed = true
	}
	if name := normalize.Name(pi.LastName); name != "" && (p.LastName == nil || *p.LastName != name) {
		p.LastName = &name
		changed = true
	}
	if pi.Linkblue != "" && (p.Linkblue == nil || *p.Linkblue != pi.Linkblue) {
		lb := pi.Linkblue
		p.Linkblue = &lb
		changed = true
	}

	if !changed {
		return nil
	}

	if err := r.dir.Replace(ctx, p); err != nil {
		return fmt.Errorf("identity: reconcile person: %w", err)
	}
	r.logger.Debug("reconciled person from provider claims",
		zap.String("person_id", p.ID.Hex()))
	return nil
}
