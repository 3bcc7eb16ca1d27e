package repository

import (
	"context"
	"errors"

	"github.com/formation-jira/valo/internal/model"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Students is the account store contract the auth service depends on.
// Create must enforce email uniqueness itself; the service's pre-check is
// only a fast path.
type Students interface {
	GetByEmail(ctx context.Context, email string) (model.Student, error)
	Create(ctx context.Context, student model.Student) error
}

// BookFilter narrows List results. Nil bounds mean unbounded.
type BookFilter struct {
	Category string
	PriceMin *float64
	PriceMax *float64
}

type Books interface {
	List(ctx context.Context, filter BookFilter) ([]model.RecommendedBook, error)
	Replace(ctx context.Context, books []model.RecommendedBook) (int, error)
}
