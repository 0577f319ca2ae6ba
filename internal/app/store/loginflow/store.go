// internal/app/store/loginflow/store.go
package loginflow

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultTTL bounds how long a login attempt may take between the
// redirect to the provider and the callback.
const DefaultTTL = 10 * time.Minute

// ErrSessionNotFound is returned by Consume when no live session exists
// for the ID. Absent, already-consumed, and expired sessions are
// deliberately indistinguishable: all of them mean "restart the login."
var ErrSessionNotFound = errors.New("login flow session not found")

// Session is a single-use record binding a PKCE code verifier and an
// optional post-login redirect to the opaque ID passed through the
// provider as the OAuth2 state parameter. The code verifier never leaves
// the server.
type Session struct {
	SessionID    string    `bson:"session_id"`
	CodeVerifier string    `bson:"code_verifier"`
	RedirectTo   string    `bson:"redirect_to,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	ExpiresAt    time.Time `bson:"expires_at"`
}

// Store manages login flow sessions in MongoDB.
type Store struct {
	c   *mongo.Collection
	ttl time.Duration
}

// New creates a login flow Store. A non-positive ttl falls back to
// DefaultTTL.
func New(db *mongo.Database, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{c: db.Collection("login_flows"), ttl: ttl}
}

// Create generates and persists a new session with a fresh opaque ID and
// PKCE code verifier.
func (s *Store) Create(ctx context.Context, redirectTo string) (Session, error) {
	verifier, err := newCodeVerifier()
	if err != nil {
		return Session{}, fmt.Errorf("generate code verifier: %w", err)
	}

	now := time.Now().UTC()
	sess := Session{
		SessionID:    uuid.NewString(),
		CodeVerifier: verifier,
		RedirectTo:   redirectTo,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}

	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("insert login flow session: %w", err)
	}
	return sess, nil
}

// Consume atomically looks up and deletes the session in a single
// FindOneAndDelete, so two concurrent callbacks with the same ID see
// exactly one success and one ErrSessionNotFound. Expired sessions take
// the same not-found path even if the TTL monitor has not removed them
// yet.
func (s *Store) Consume(ctx context.Context, sessionID string) (Session, error) {
	var sess Session
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"session_id": sessionID,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&sess)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("consume login flow session: %w", err)
	}
	return sess, nil
}

// CleanupExpired removes expired sessions. This is a backup for when
// TTL index cleanup is delayed.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.c.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lt": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// newCodeVerifier returns 64 bytes of entropy base64url-encoded (86
// characters), comfortably above the 43-character PKCE minimum.
func newCodeVerifier() (string, error) {
	b := make([]byte, 64)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
