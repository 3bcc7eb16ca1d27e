package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/formation-jira/valo/internal/model"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetByEmail(ctx context.Context, email string) (model.Student, error) {
	var student model.Student
	row := s.pool.QueryRow(ctx, `
		SELECT id, nom, age, classe, departement, email, password_hash, created_at
		FROM etudiants
		WHERE email = $1
	`, email)
	err := row.Scan(
		&student.ID,
		&student.Nom,
		&student.Age,
		&student.Classe,
		&student.Departement,
		&student.Email,
		&student.PasswordHash,
		&student.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Student{}, ErrNotFound
	}
	return student, err
}

func (s *Store) Create(ctx context.Context, student model.Student) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO etudiants (id, nom, age, classe, departement, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, student.ID, student.Nom, student.Age, student.Classe, student.Departement, student.Email, student.PasswordHash, student.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (s *Store) List(ctx context.Context, filter BookFilter) ([]model.RecommendedBook, error) {
	query := `
		SELECT id, title, price, category, availability
		FROM recommended_books
		WHERE ($1 = '' OR category = $1)
		  AND ($2::numeric IS NULL OR price >= $2)
		  AND ($3::numeric IS NULL OR price <= $3)
		ORDER BY id
	`
	rows, err := s.pool.Query(ctx, query, filter.Category, filter.PriceMin, filter.PriceMax)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := make([]model.RecommendedBook, 0)
	for rows.Next() {
		var book model.RecommendedBook
		if err := rows.Scan(&book.ID, &book.Title, &book.Price, &book.Category, &book.Availability); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// Replace swaps the whole recommendation set in one transaction so readers
// never observe a half-loaded catalogue.
func (s *Store) Replace(ctx context.Context, books []model.RecommendedBook) (int, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM recommended_books`); err != nil {
		return 0, err
	}
	for _, book := range books {
		_, err := tx.Exec(ctx, `
			INSERT INTO recommended_books (title, price, category, availability)
			VALUES ($1, $2, $3, $4)
		`, book.Title, book.Price, book.Category, book.Availability)
		if err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(books), nil
}
