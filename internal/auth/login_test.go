package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/cadenza/internal/auth"
	"github.com/dropDatabas3/cadenza/internal/cache"
	"github.com/dropDatabas3/cadenza/internal/security/password"
	"github.com/dropDatabas3/cadenza/internal/security/totp"
)

type fakeUserStore struct {
	byEmail map[string]*auth.UserInfo
	deleted []uuid.UUID
	updates int
}

func (f *fakeUserStore) LookupUserByEmail(_ context.Context, email string) (*auth.UserInfo, error) {
	info, ok := f.byEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *info
	return &cp, nil
}

func (f *fakeUserStore) InsertUser(_ context.Context, name, email, passwordHash string) (uuid.UUID, error) {
	id := uuid.New()
	f.byEmail[email] = &auth.UserInfo{ID: id, PasswordHash: passwordHash}
	return id, nil
}

func (f *fakeUserStore) DeleteUser(_ context.Context, userID uuid.UUID) error {
	f.deleted = append(f.deleted, userID)
	for email, info := range f.byEmail {
		if info.ID == userID {
			delete(f.byEmail, email)
		}
	}
	return nil
}

func (f *fakeUserStore) UpdateUserPasswordHash(_ context.Context, userID uuid.UUID, passwordHash string) error {
	for _, info := range f.byEmail {
		if info.ID == userID {
			info.PasswordHash = passwordHash
			f.updates++
		}
	}
	return nil
}

func (f *fakeUserStore) MarkUserVerified(_ context.Context, userID uuid.UUID) error {
	for _, info := range f.byEmail {
		if info.ID == userID {
			info.Verified = true
		}
	}
	return nil
}

type fakeMailer struct {
	sent []string // codes, en orden
	fail error
}

func (f *fakeMailer) SendVerificationCode(_ context.Context, _, code string) error {
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, code)
	return nil
}

type loginFixture struct {
	users  *fakeUserStore
	tokens *auth.TokenService
	mailer *fakeMailer
	svc    *auth.LoginService
}

func newLoginFixture(t *testing.T) *loginFixture {
	t.Helper()
	users := &fakeUserStore{byEmail: make(map[string]*auth.UserInfo)}
	tokens := auth.NewTokenService(cache.NewMemory(""), testPolicy())
	totpSvc := auth.NewTOTPService(tokens.Store(), &fakeSecretStore{}, totp.DefaultPolicy)
	mailer := &fakeMailer{}
	return &loginFixture{
		users:  users,
		tokens: tokens,
		mailer: mailer,
		svc:    auth.NewLoginService(users, tokens, totpSvc, mailer, testHashParams),
	}
}

func (f *loginFixture) seedUser(t *testing.T, email, pass string, verified bool) uuid.UUID {
	t.Helper()
	hash, err := password.Hash(testHashParams, pass)
	if err != nil {
		t.Fatal(err)
	}
	id := uuid.New()
	f.users.byEmail[email] = &auth.UserInfo{ID: id, PasswordHash: hash, Verified: verified}
	return id
}

func TestLoginService_Login(t *testing.T) {
	ctx := context.Background()
	fx := newLoginFixture(t)
	userID := fx.seedUser(t, "ana@example.com", "hunter2", true)

	tokens, principal, err := fx.svc.Login(ctx, "ana@example.com", "hunter2", "")
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := auth.UserIDOf(principal); got != userID {
		t.Fatalf("expected principal %s, got %s", userID, got)
	}

	bound, err := fx.tokens.ContextByAccessToken(ctx, tokens.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if !auth.EqualContexts(principal, bound) {
		t.Fatal("issued token must be bound to the login principal")
	}
}

func TestLoginService_LoginFailures(t *testing.T) {
	ctx := context.Background()
	fx := newLoginFixture(t)
	fx.seedUser(t, "ana@example.com", "hunter2", true)
	fx.seedUser(t, "unverified@example.com", "hunter2", false)

	cases := []struct {
		name  string
		email string
		pass  string
		kind  auth.Kind
	}{
		{"unknown email", "nadie@example.com", "hunter2", auth.KindNotFound},
		{"unverified account", "unverified@example.com", "hunter2", auth.KindForbidden},
		{"wrong password", "ana@example.com", "wrong", auth.KindAuthMismatch},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := fx.svc.Login(ctx, tc.email, tc.pass, "")
			if !auth.IsKind(err, tc.kind) {
				t.Fatalf("expected kind %d, got %v", tc.kind, err)
			}
		})
	}
}

func TestLoginService_LoginWithTOTP(t *testing.T) {
	ctx := context.Background()
	fx := newLoginFixture(t)

	secret, err := totp.GenerateSecret()
	if err != nil {
		t.Fatal(err)
	}
	fx.seedUser(t, "ana@example.com", "hunter2", true)
	fx.users.byEmail["ana@example.com"].TOTPSecret = secret

	// Sin code.
	_, _, err = fx.svc.Login(ctx, "ana@example.com", "hunter2", "")
	if !auth.IsKind(err, auth.KindAuthExpected) {
		t.Fatalf("expected AuthExpected, got %v", err)
	}

	// Code incorrecto.
	_, _, err = fx.svc.Login(ctx, "ana@example.com", "hunter2", "000000")
	if !auth.IsKind(err, auth.KindAuthMismatch) {
		t.Fatalf("expected AuthMismatch, got %v", err)
	}

	// Code correcto.
	code, err := totp.DefaultPolicy.CodeAt(secret, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := fx.svc.Login(ctx, "ana@example.com", "hunter2", code); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoginService_RehashOnLogin(t *testing.T) {
	ctx := context.Background()
	fx := newLoginFixture(t)

	oldParams := password.Params{Memory: 4 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}
	hash, err := password.Hash(oldParams, "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	fx.users.byEmail["ana@example.com"] = &auth.UserInfo{ID: uuid.New(), PasswordHash: hash, Verified: true}

	if _, _, err := fx.svc.Login(ctx, "ana@example.com", "hunter2", ""); err != nil {
		t.Fatal(err)
	}
	if fx.users.updates != 1 {
		t.Fatalf("expected one password rehash, got %d", fx.users.updates)
	}
	if password.NeedsRehash(testHashParams, fx.users.byEmail["ana@example.com"].PasswordHash) {
		t.Fatal("persisted hash must now match current params")
	}
}

func TestLoginService_RegisterAndVerify(t *testing.T) {
	ctx := context.Background()
	fx := newLoginFixture(t)

	userID, err := fx.svc.Register(ctx, "Ana", "ana@example.com", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if len(fx.mailer.sent) != 1 {
		t.Fatalf("expected one verification email, got %d", len(fx.mailer.sent))
	}

	// Hasta verificar, el login está vedado.
	if _, _, err := fx.svc.Login(ctx, "ana@example.com", "hunter2", ""); !auth.IsKind(err, auth.KindForbidden) {
		t.Fatalf("expected Forbidden before verification, got %v", err)
	}

	got, err := fx.svc.Verify(ctx, fx.mailer.sent[0])
	if err != nil {
		t.Fatal(err)
	}
	if got != userID {
		t.Fatalf("expected %s, got %s", userID, got)
	}

	if _, _, err := fx.svc.Login(ctx, "ana@example.com", "hunter2", ""); err != nil {
		t.Fatalf("login after verification must succeed: %v", err)
	}

	// El code es one-shot.
	if _, err := fx.svc.Verify(ctx, fx.mailer.sent[0]); !auth.IsKind(err, auth.KindAuthNotFound) {
		t.Fatalf("expected AuthNotFound on replay, got %v", err)
	}
}

func TestLoginService_RegisterRollsBackOnMailFailure(t *testing.T) {
	ctx := context.Background()
	fx := newLoginFixture(t)
	fx.mailer.fail = errors.New("smtp down")

	if _, err := fx.svc.Register(ctx, "Ana", "ana@example.com", "hunter2"); err == nil {
		t.Fatal("expected the registration to fail")
	}
	if len(fx.users.deleted) != 1 {
		t.Fatalf("the created user must be rolled back, deletions=%d", len(fx.users.deleted))
	}
	if _, ok := fx.users.byEmail["ana@example.com"]; ok {
		t.Fatal("no user must remain after rollback")
	}
}
