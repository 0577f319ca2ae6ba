package loginflow_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/marathonhub/internal/app/store/loginflow"
	"github.com/dalemusser/marathonhub/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginflow.New(db, 10*time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sess, err := store.Create(ctx, "/teams/my-team")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if sess.SessionID == "" {
		t.Error("expected a session ID")
	}
	if len(sess.CodeVerifier) < 43 {
		t.Errorf("code verifier too short for PKCE: %d chars", len(sess.CodeVerifier))
	}
	if sess.RedirectTo != "/teams/my-team" {
		t.Errorf("redirectTo: got %q", sess.RedirectTo)
	}
	if !sess.ExpiresAt.After(sess.CreatedAt) {
		t.Error("expiry must be after creation")
	}
}

func TestStore_Create_UniqueVerifiers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginflow.New(db, 10*time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	b, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if a.SessionID == b.SessionID {
		t.Error("session IDs must be unique")
	}
	if a.CodeVerifier == b.CodeVerifier {
		t.Error("code verifiers must be unique")
	}
}

func TestStore_Consume(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginflow.New(db, 10*time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, "/dashboard")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Consume(ctx, created.SessionID)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if got.CodeVerifier != created.CodeVerifier {
		t.Error("consumed session must return the stored code verifier")
	}
	if got.RedirectTo != "/dashboard" {
		t.Errorf("redirectTo: got %q", got.RedirectTo)
	}
}

func TestStore_Consume_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginflow.New(db, 10*time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Consume(ctx, "no-such-session")
	if !errors.Is(err, loginflow.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStore_Consume_SingleUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginflow.New(db, 10*time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := store.Consume(ctx, created.SessionID); err != nil {
		t.Fatalf("first Consume failed: %v", err)
	}

	_, err = store.Consume(ctx, created.SessionID)
	if !errors.Is(err, loginflow.ErrSessionNotFound) {
		t.Errorf("second Consume: expected ErrSessionNotFound, got %v", err)
	}
}

func TestStore_Consume_Concurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginflow.New(db, 10*time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.Consume(ctx, created.SessionID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for i, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, loginflow.ErrSessionNotFound):
			// expected for all but one caller
		default:
			t.Errorf("caller %d: unexpected error %v", i, err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly 1 successful consume, got %d", successes)
	}
}

func TestStore_Consume_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	// TTL of one nanosecond: the session is expired by the time we read it.
	store := loginflow.New(db, time.Nanosecond)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	_, err = store.Consume(ctx, created.SessionID)
	if !errors.Is(err, loginflow.ErrSessionNotFound) {
		t.Errorf("expired session: expected ErrSessionNotFound, got %v", err)
	}
}

func TestStore_CleanupExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	expired := loginflow.New(db, time.Nanosecond)
	live := loginflow.New(db, 10*time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := expired.Create(ctx, ""); err != nil {
			t.Fatalf("Create expired session failed: %v", err)
		}
	}
	keep, err := live.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create live session failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	deleted, err := live.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 deleted, got %d", deleted)
	}

	if _, err := live.Consume(ctx, keep.SessionID); err != nil {
		t.Errorf("live session should survive cleanup: %v", err)
	}
}
