package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"grimoire-backend/internal/domains/book/model"
	"grimoire-backend/pkg/database"
)

const pgUniqueViolation = "23505"

type postgresBookRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresBookRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresBookRepository{pool: pool}
}

func (r *postgresBookRepository) Insert(ctx context.Context, book *model.Book) error {
	query := `
		INSERT INTO books (id, user_id, title, author, genre, year, image_key, average_rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`

	_, err := r.pool.Exec(ctx, query,
		book.ID,
		book.UserID,
		book.Title,
		book.Author,
		book.Genre,
		book.Year,
		book.ImageKey,
		book.AverageRating,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return model.ErrBookAlreadyExists
		}
		return fmt.Errorf("failed to insert book: %w", err)
	}

	return nil
}

func (r *postgresBookRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	query := `
		SELECT id, user_id, title, author, genre, year, image_key, average_rating, created_at, updated_at
		FROM books
		WHERE id = $1
	`

	book, err := scanBook(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	if err := r.loadRatings(ctx, book); err != nil {
		return nil, err
	}

	return book, nil
}

func (r *postgresBookRepository) List(ctx context.Context) ([]model.Book, error) {
	query := `
		SELECT id, user_id, title, author, genre, year, image_key, average_rating, created_at, updated_at
		FROM books
		ORDER BY created_at ASC
	`
	return r.queryBooks(ctx, query)
}

// TopRated returns up to limit books ordered by average rating descending.
// Ties keep insertion order, so the result is stable across calls.
func (r *postgresBookRepository) TopRated(ctx context.Context, limit int) ([]model.Book, error) {
	query := `
		SELECT id, user_id, title, author, genre, year, image_key, average_rating, created_at, updated_at
		FROM books
		ORDER BY average_rating DESC, created_at ASC
		LIMIT $1
	`
	return r.queryBooks(ctx, query, limit)
}

func (r *postgresBookRepository) ExistsByTitleAuthor(ctx context.Context, title, author string) (bool, error) {
	// Case-sensitive equality on the trimmed pair
	query := `SELECT EXISTS (SELECT 1 FROM books WHERE title = $1 AND author = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, title, author).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check title/author: %w", err)
	}

	return exists, nil
}

// Replace overwrites the caller-editable fields and the image key.
// id and user_id are never touched.
func (r *postgresBookRepository) Replace(ctx context.Context, book *model.Book) error {
	query := `
		UPDATE books
		SET title = $2, author = $3, genre = $4, year = $5, image_key = $6, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		book.ID,
		book.Title,
		book.Author,
		book.Genre,
		book.Year,
		book.ImageKey,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return model.ErrBookAlreadyExists
		}
		return fmt.Errorf("failed to update book: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrBookNotFound
	}

	return nil
}

func (r *postgresBookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Ratings go with the book (ON DELETE CASCADE)
	query := `DELETE FROM books WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrBookNotFound
	}

	return nil
}

// AddRating appends a rating and recomputes the average inside one
// transaction. The book row is locked for the duration, so concurrent
// appends on the same book serialize; the unique (book_id, user_id)
// constraint turns a same-identity race into exactly one accepted rating.
func (r *postgresBookRepository) AddRating(ctx context.Context, bookID, raterID uuid.UUID, grade float64) (*model.Book, error) {
	return database.WithTransactionResult(ctx, r.pool, func(tx pgx.Tx) (*model.Book, error) {
		// 1. Lock the book row
		lockQuery := `
			SELECT id, user_id, title, author, genre, year, image_key, average_rating, created_at, updated_at
			FROM books
			WHERE id = $1
			FOR UPDATE
		`
		book, err := scanBook(tx.QueryRow(ctx, lockQuery, bookID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, model.ErrBookNotFound
			}
			return nil, fmt.Errorf("failed to lock book: %w", err)
		}

		// 2. Append the rating; the unique constraint rejects a second
		// rating by the same identity
		insertQuery := `
			INSERT INTO ratings (book_id, user_id, grade, created_at)
			VALUES ($1, $2, $3, NOW())
		`
		if _, err := tx.Exec(ctx, insertQuery, bookID, raterID, grade); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return nil, model.ErrAlreadyRated
			}
			return nil, fmt.Errorf("failed to insert rating: %w", err)
		}

		// 3. Recompute the average over all grades (order-independent)
		updateQuery := `
			UPDATE books
			SET average_rating = (SELECT AVG(grade) FROM ratings WHERE book_id = $1), updated_at = NOW()
			WHERE id = $1
			RETURNING average_rating
		`
		if err := tx.QueryRow(ctx, updateQuery, bookID).Scan(&book.AverageRating); err != nil {
			return nil, fmt.Errorf("failed to recompute average: %w", err)
		}

		// 4. Load the ratings for the response
		ratings, err := r.queryRatings(ctx, tx, bookID)
		if err != nil {
			return nil, err
		}
		book.Ratings = ratings

		return book, nil
	})
}

func (r *postgresBookRepository) ListImageKeys(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT image_key FROM books`)
	if err != nil {
		return nil, fmt.Errorf("failed to list image keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan image key: %w", err)
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// ========================================
// HELPERS
// ========================================

func scanBook(row pgx.Row) (*model.Book, error) {
	book := &model.Book{}
	err := row.Scan(
		&book.ID,
		&book.UserID,
		&book.Title,
		&book.Author,
		&book.Genre,
		&book.Year,
		&book.ImageKey,
		&book.AverageRating,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (r *postgresBookRepository) queryBooks(ctx context.Context, query string, args ...interface{}) ([]model.Book, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, *book)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range books {
		if err := r.loadRatings(ctx, &books[i]); err != nil {
			return nil, err
		}
	}

	return books, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *postgresBookRepository) loadRatings(ctx context.Context, book *model.Book) error {
	ratings, err := r.queryRatings(ctx, r.pool, book.ID)
	if err != nil {
		return err
	}
	book.Ratings = ratings
	return nil
}

func (r *postgresBookRepository) queryRatings(ctx context.Context, q querier, bookID uuid.UUID) ([]model.Rating, error) {
	query := `
		SELECT user_id, grade, created_at
		FROM ratings
		WHERE book_id = $1
		ORDER BY created_at ASC
	`

	rows, err := q.Query(ctx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	ratings := []model.Rating{}
	for rows.Next() {
		var rating model.Rating
		if err := rows.Scan(&rating.UserID, &rating.Grade, &rating.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}

	return ratings, rows.Err()
}
