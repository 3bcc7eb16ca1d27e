package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/formation-jira/valo/internal/crypto"
	"github.com/formation-jira/valo/internal/repository"
)

func newTestAuth() (*Auth, *repository.Memory) {
	repo := repository.NewMemory()
	return NewAuth(repo, "test-secret", "test-issuer", 30*time.Minute, 4), repo
}

func signupInput(email string) SignupInput {
	return SignupInput{
		Nom:         "Durand",
		Age:         22,
		Classe:      "M1",
		Departement: "Informatique",
		Email:       email,
		Password:    "p1",
	}
}

func TestSignupLoginResolve(t *testing.T) {
	svc, repo := newTestAuth()
	ctx := context.Background()

	if err := svc.Signup(ctx, signupInput("u@x.com")); err != nil {
		t.Fatalf("signup error: %v", err)
	}

	stored, err := repo.GetByEmail(ctx, "u@x.com")
	if err != nil {
		t.Fatalf("stored account missing: %v", err)
	}
	if stored.PasswordHash == "p1" || stored.PasswordHash == "" {
		t.Fatalf("plaintext password must not be stored")
	}
	if err := crypto.CheckPassword(stored.PasswordHash, "p1"); err != nil {
		t.Fatalf("stored hash should verify against the password")
	}

	token, err := svc.Login(ctx, "u@x.com", "p1")
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}

	subject, err := svc.ResolveCaller(token)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if subject != "u@x.com" {
		t.Fatalf("expected subject u@x.com, got %q", subject)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuth()
	ctx := context.Background()

	if err := svc.Signup(ctx, signupInput("a@x.com")); err != nil {
		t.Fatalf("first signup error: %v", err)
	}
	if err := svc.Signup(ctx, signupInput("a@x.com")); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginFailuresIndistinguishable(t *testing.T) {
	svc, _ := newTestAuth()
	ctx := context.Background()

	if err := svc.Signup(ctx, signupInput("u@x.com")); err != nil {
		t.Fatalf("signup error: %v", err)
	}

	_, wrongPassword := svc.Login(ctx, "u@x.com", "wrong")
	_, unknownEmail := svc.Login(ctx, "nobody@x.com", "p1")

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPassword)
	}
	if !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("failure messages must match: %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestLoginNormalizesEmail(t *testing.T) {
	svc, _ := newTestAuth()
	ctx := context.Background()

	if err := svc.Signup(ctx, signupInput("Mixed@X.com")); err != nil {
		t.Fatalf("signup error: %v", err)
	}
	if _, err := svc.Login(ctx, "  mixed@x.com ", "p1"); err != nil {
		t.Fatalf("login with normalized email should succeed: %v", err)
	}
}

func TestResolveCallerRejectsBadTokens(t *testing.T) {
	svc, _ := newTestAuth()
	ctx := context.Background()

	if err := svc.Signup(ctx, signupInput("u@x.com")); err != nil {
		t.Fatalf("signup error: %v", err)
	}
	token, err := svc.Login(ctx, "u@x.com", "p1")
	if err != nil {
		t.Fatalf("login error: %v", err)
	}

	if _, err := svc.ResolveCaller("garbage"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for garbage, got %v", err)
	}

	tampered := token + "xx"
	if _, err := svc.ResolveCaller(tampered); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for tampered token, got %v", err)
	}

	other := NewAuth(repository.NewMemory(), "other-secret", "test-issuer", 30*time.Minute, 4)
	if _, err := other.ResolveCaller(token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated under a different key, got %v", err)
	}
}

func TestResolveCallerExpiredToken(t *testing.T) {
	repo := repository.NewMemory()
	svc := NewAuth(repo, "test-secret", "test-issuer", -time.Minute, 4)
	ctx := context.Background()

	if err := svc.Signup(ctx, signupInput("u@x.com")); err != nil {
		t.Fatalf("signup error: %v", err)
	}
	token, err := svc.Login(ctx, "u@x.com", "p1")
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	if _, err := svc.ResolveCaller(token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for expired token, got %v", err)
	}
}

func TestConcurrentSignupSameEmail(t *testing.T) {
	svc, repo := newTestAuth()
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Signup(ctx, signupInput("race@x.com"))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrEmailTaken):
		default:
			t.Fatalf("unexpected signup error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful signup, got %d", successes)
	}
	if _, err := repo.GetByEmail(ctx, "race@x.com"); err != nil {
		t.Fatalf("winning account missing: %v", err)
	}
}

func TestProfileSeparateFromResolve(t *testing.T) {
	svc, _ := newTestAuth()
	ctx := context.Background()

	input := signupInput("u@x.com")
	input.Nom = "Martin"
	if err := svc.Signup(ctx, input); err != nil {
		t.Fatalf("signup error: %v", err)
	}

	student, err := svc.Profile(ctx, "U@X.com")
	if err != nil {
		t.Fatalf("profile error: %v", err)
	}
	if student.Nom != "Martin" || student.Departement != "Informatique" {
		t.Fatalf("unexpected profile %+v", student)
	}
	if !strings.HasPrefix(student.PasswordHash, "$2") {
		t.Fatalf("expected a bcrypt hash in storage")
	}
}
