package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/inkpress/apiserver/types"
)

// CategoryRepository handles persistence for categories.
type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) List(ctx context.Context) ([]types.Category, error) {
	const query = `
		SELECT id, title, description, user_id, created_at, updated_at
		FROM categories
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]types.Category, 0)
	for rows.Next() {
		var category types.Category
		if err := rows.Scan(
			&category.ID,
			&category.Title,
			&category.Description,
			&category.UserID,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *CategoryRepository) Get(ctx context.Context, id int) (types.Category, error) {
	const query = `
		SELECT id, title, description, user_id, created_at, updated_at
		FROM categories
		WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *CategoryRepository) GetByTitle(ctx context.Context, title string) (types.Category, error) {
	const query = `
		SELECT id, title, description, user_id, created_at, updated_at
		FROM categories
		WHERE title = $1`
	return r.getOne(ctx, query, title)
}

func (r *CategoryRepository) getOne(ctx context.Context, query string, arg any) (types.Category, error) {
	var category types.Category
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&category.ID,
		&category.Title,
		&category.Description,
		&category.UserID,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Category{}, ErrNotFound
		}
		return types.Category{}, err
	}
	return category, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category types.Category) (types.Category, error) {
	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now

	const query = `
		INSERT INTO categories (title, description, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		category.Title,
		category.Description,
		category.UserID,
		category.CreatedAt,
		category.UpdatedAt,
	).Scan(&category.ID); err != nil {
		if isUniqueViolation(err) {
			return types.Category{}, ErrDuplicate
		}
		return types.Category{}, err
	}
	return category, nil
}

func (r *CategoryRepository) Update(ctx context.Context, category types.Category) (types.Category, error) {
	category.UpdatedAt = time.Now()

	const query = `
		UPDATE categories
		SET title = $1,
			description = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(
		ctx,
		query,
		category.Title,
		category.Description,
		category.UpdatedAt,
		category.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Category{}, ErrDuplicate
		}
		return types.Category{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Category{}, err
	}
	if affected == 0 {
		return types.Category{}, ErrNotFound
	}
	return category, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM categories WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
