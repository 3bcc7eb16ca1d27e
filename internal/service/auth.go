// Package service contains the authentication business logic: signup, login,
// and resolving a caller's identity from a presented bearer token.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/formation-jira/valo/internal/auth"
	"github.com/formation-jira/valo/internal/crypto"
	"github.com/formation-jira/valo/internal/model"
	"github.com/formation-jira/valo/internal/repository"
)

var (
	// ErrEmailTaken is returned by Signup when the email is already
	// registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned by Login for an unknown email AND
	// for a wrong password. Callers must not be able to tell the two
	// apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned by ResolveCaller for any token
	// failure, whatever the cause.
	ErrUnauthenticated = errors.New("unauthenticated")
)

type Auth struct {
	students   repository.Students
	jwtSecret  string
	jwtIssuer  string
	tokenTTL   time.Duration
	bcryptCost int
}

func NewAuth(students repository.Students, jwtSecret, jwtIssuer string, tokenTTL time.Duration, bcryptCost int) *Auth {
	return &Auth{
		students:   students,
		jwtSecret:  jwtSecret,
		jwtIssuer:  jwtIssuer,
		tokenTTL:   tokenTTL,
		bcryptCost: bcryptCost,
	}
}

type SignupInput struct {
	Nom         string
	Age         int
	Classe      string
	Departement string
	Email       string
	Password    string
}

// Signup registers a new account with a hashed password. The repository's
// unique index stays the source of truth for duplicates; the lookup here is
// only a fast path, so a concurrent duplicate still fails with ErrEmailTaken.
func (a *Auth) Signup(ctx context.Context, input SignupInput) error {
	email := normalizeEmail(input.Email)

	if _, err := a.students.GetByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("lookup account: %w", err)
	}

	hash, err := crypto.HashPassword(input.Password, a.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	student := model.Student{
		ID:           uuid.NewString(),
		Nom:          input.Nom,
		Age:          input.Age,
		Classe:       input.Classe,
		Departement:  input.Departement,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.students.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// Login verifies the credentials and issues a bearer token whose subject is
// the account email.
func (a *Auth) Login(ctx context.Context, email, password string) (string, error) {
	student, err := a.students.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup account: %w", err)
	}
	if err := crypto.CheckPassword(student.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := auth.NewAccessToken(a.jwtSecret, a.jwtIssuer, student.Email, a.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// ResolveCaller returns the email asserted by a presented token. It does not
// touch the account store; identity resolution and profile lookup are
// separate concerns.
func (a *Auth) ResolveCaller(token string) (string, error) {
	subject, err := auth.ParseToken(a.jwtSecret, token)
	if err != nil {
		return "", ErrUnauthenticated
	}
	return subject, nil
}

// Profile fetches the account behind a resolved subject.
func (a *Auth) Profile(ctx context.Context, email string) (model.Student, error) {
	return a.students.GetByEmail(ctx, normalizeEmail(email))
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
