package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/marathonhub/internal/app/system/access"
	"github.com/dalemusser/marathonhub/internal/app/system/auth"
	"github.com/dalemusser/marathonhub/internal/app/system/credential"
	"github.com/dalemusser/marathonhub/internal/domain/models"
)

func newCodec(t *testing.T) *credential.Codec {
	t.Helper()
	c, err := credential.New([]byte("auth-test-secret-0123456789abcdef"), "https://app.marathonhub.test", time.Hour)
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}
	return c
}

func mintFor(t *testing.T, codec *credential.Codec, level access.AccessLevel) string {
	t.Helper()
	raw, err := codec.Mint("person-1", models.AuthSourceLinkblue, access.ForLevel(level), nil, nil)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	return raw
}

func TestTokenFromRequest_Cookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: auth.TokenCookieName, Value: "cookie-token"})

	got, err := auth.TokenFromRequest(r)
	if err != nil {
		t.Fatalf("TokenFromRequest failed: %v", err)
	}
	if got != "cookie-token" {
		t.Errorf("got %q, want cookie token", got)
	}
}

func TestTokenFromRequest_Bearer(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer header-token")

	got, err := auth.TokenFromRequest(r)
	if err != nil {
		t.Fatalf("TokenFromRequest failed: %v", err)
	}
	if got != "header-token" {
		t.Errorf("got %q, want header token", got)
	}
}

func TestTokenFromRequest_CookieWinsOverHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: auth.TokenCookieName, Value: "cookie-token"})
	r.Header.Set("Authorization", "Bearer header-token")

	got, err := auth.TokenFromRequest(r)
	if err != nil {
		t.Fatalf("TokenFromRequest failed: %v", err)
	}
	if got != "cookie-token" {
		t.Errorf("got %q, want cookie token to take precedence", got)
	}
}

func TestTokenFromRequest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"no token", "", auth.ErrNoToken},
		{"missing scheme", "just-a-token", auth.ErrInvalidAuthHeader},
		{"empty token", "Bearer ", auth.ErrInvalidAuthHeader},
		{"wrong scheme", "Basic dXNlcjpwYXNz", auth.ErrNotBearer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			_, err := auth.TokenFromRequest(r)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAuthenticator_ValidToken(t *testing.T) {
	codec := newCodec(t)
	raw := mintFor(t, codec, access.TeamCaptain)

	var got credential.Credential
	var found bool
	handler := auth.Authenticator(codec, false, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = auth.CurrentCredential(r)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: auth.TokenCookieName, Value: raw})
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if !found {
		t.Fatal("expected a credential in context")
	}
	if got.Subject != "person-1" {
		t.Errorf("subject: got %q", got.Subject)
	}
	if got.Auth.AccessLevel != access.TeamCaptain {
		t.Errorf("access level: got %v", got.Auth.AccessLevel)
	}
}

func TestAuthenticator_NoToken(t *testing.T) {
	codec := newCodec(t)

	handler := auth.Authenticator(codec, false, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.CurrentCredential(r); ok {
			t.Error("expected no credential for anonymous request")
		}
		if auth.CurrentAuthorization(r) != access.Anonymous {
			t.Error("expected anonymous authorization")
		}
		if auth.AuthError(r) != nil {
			t.Error("expected no auth error for a token-less request")
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestAuthenticator_BadTokenClearsCookieAndRecordsError(t *testing.T) {
	codec := newCodec(t)

	handler := auth.Authenticator(codec, false, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.CurrentCredential(r); ok {
			t.Error("expected no credential for a bad token")
		}
		if !errors.Is(auth.AuthError(r), credential.ErrMalformedPayload) {
			t.Errorf("expected recorded malformed-payload error, got %v", auth.AuthError(r))
		}
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: auth.TokenCookieName, Value: "garbage"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	if cookies[0].Name != auth.TokenCookieName || cookies[0].MaxAge != -1 {
		t.Errorf("expected a clearing token cookie, got %+v", cookies[0])
	}
}

func TestAuthenticator_ExpiredToken(t *testing.T) {
	codec := newCodec(t)
	shortCodec, err := credential.New([]byte("auth-test-secret-0123456789abcdef"), "https://app.marathonhub.test", time.Nanosecond)
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}
	raw := mintFor(t, shortCodec, access.Public)
	time.Sleep(10 * time.Millisecond)

	handler := auth.Authenticator(codec, false, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !errors.Is(auth.AuthError(r), credential.ErrExpired) {
			t.Errorf("expected recorded expiry error, got %v", auth.AuthError(r))
		}
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: auth.TokenCookieName, Value: raw})
	handler.ServeHTTP(httptest.NewRecorder(), r)
}

func TestRequireAtLeast(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		credential *access.AccessLevel
		min        access.AccessLevel
		wantStatus int
	}{
		{"anonymous below public", nil, access.Public, http.StatusUnauthorized},
		{"anonymous at none", nil, access.None, http.StatusOK},
		{"member below committee", ptr(access.TeamMember), access.Committee, http.StatusForbidden},
		{"member at member", ptr(access.TeamMember), access.TeamMember, http.StatusOK},
		{"admin above committee", ptr(access.Admin), access.Committee, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.credential != nil {
				r = auth.WithTestCredential(r, credential.Credential{
					Subject: "person-1",
					Source:  models.AuthSourceLinkblue,
					Auth:    access.ForLevel(*tt.credential),
				})
			}
			w := httptest.NewRecorder()
			auth.RequireAtLeast(tt.min)(okHandler).ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireAuthorization_CommitteePinned(t *testing.T) {
	min := access.Authorization{
		DbRole:      access.RoleCommittee,
		AccessLevel: access.Committee,
		Membership:  access.Membership{Committee: "fundraising"},
	}
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	fundraiser, err := access.Derive(access.RoleCommittee, access.Membership{
		Role: access.CommitteeMemberRole, Committee: "fundraising",
	})
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	hospitality, err := access.Derive(access.RoleCommittee, access.Membership{
		Role: access.CommitteeMemberRole, Committee: "hospitality",
	})
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = auth.WithTestCredential(r, credential.Credential{Subject: "p", Auth: fundraiser})
	w := httptest.NewRecorder()
	auth.RequireAuthorization(min)(okHandler).ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("matching committee: got %d, want 200", w.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r = auth.WithTestCredential(r, credential.Credential{Subject: "p", Auth: hospitality})
	w = httptest.NewRecorder()
	auth.RequireAuthorization(min)(okHandler).ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Errorf("wrong committee: got %d, want 403", w.Code)
	}
}

func TestSetAndClearTokenCookie(t *testing.T) {
	w := httptest.NewRecorder()
	expires := time.Now().Add(time.Hour)
	auth.SetTokenCookie(w, "tok", expires, true)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != auth.TokenCookieName || c.Value != "tok" {
		t.Errorf("unexpected cookie: %+v", c)
	}
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie attributes wrong: %+v", c)
	}

	w = httptest.NewRecorder()
	auth.ClearTokenCookie(w, true)
	c = w.Result().Cookies()[0]
	if c.MaxAge != -1 || c.Value != "" {
		t.Errorf("expected a clearing cookie, got %+v", c)
	}
}

func ptr(l access.AccessLevel) *access.AccessLevel { return &l }
