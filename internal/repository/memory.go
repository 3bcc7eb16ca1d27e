package repository

import (
	"context"
	"sync"

	"github.com/formation-jira/valo/internal/model"
)

// Memory is a mutex-guarded in-memory store used by tests and local runs
// without Postgres. Uniqueness is enforced under the lock, so concurrent
// Create calls for one email admit exactly one winner.
type Memory struct {
	mu       sync.Mutex
	students map[string]model.Student
	books    []model.RecommendedBook
}

func NewMemory() *Memory {
	return &Memory{students: make(map[string]model.Student)}
}

func (m *Memory) GetByEmail(_ context.Context, email string) (model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	student, ok := m.students[email]
	if !ok {
		return model.Student{}, ErrNotFound
	}
	return student, nil
}

func (m *Memory) Create(_ context.Context, student model.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[student.Email]; ok {
		return ErrDuplicateEmail
	}
	m.students[student.Email] = student
	return nil
}

func (m *Memory) List(_ context.Context, filter BookFilter) ([]model.RecommendedBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.RecommendedBook, 0, len(m.books))
	for _, book := range m.books {
		if filter.Category != "" && book.Category != filter.Category {
			continue
		}
		if filter.PriceMin != nil && book.Price < *filter.PriceMin {
			continue
		}
		if filter.PriceMax != nil && book.Price > *filter.PriceMax {
			continue
		}
		out = append(out, book)
	}
	return out, nil
}

func (m *Memory) Replace(_ context.Context, books []model.RecommendedBook) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books = make([]model.RecommendedBook, len(books))
	copy(m.books, books)
	for i := range m.books {
		m.books[i].ID = int64(i + 1)
	}
	return len(books), nil
}
