package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/inkpress/apiserver/types"
)

// TagRepository handles persistence for tags.
type TagRepository struct {
	db *sql.DB
}

func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) List(ctx context.Context) ([]types.Tag, error) {
	const query = `
		SELECT id, title, description, user_id, created_at, updated_at
		FROM tags
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]types.Tag, 0)
	for rows.Next() {
		var tag types.Tag
		if err := rows.Scan(
			&tag.ID,
			&tag.Title,
			&tag.Description,
			&tag.UserID,
			&tag.CreatedAt,
			&tag.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tags, nil
}

func (r *TagRepository) Get(ctx context.Context, id int) (types.Tag, error) {
	const query = `
		SELECT id, title, description, user_id, created_at, updated_at
		FROM tags
		WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *TagRepository) GetByTitle(ctx context.Context, title string) (types.Tag, error) {
	const query = `
		SELECT id, title, description, user_id, created_at, updated_at
		FROM tags
		WHERE title = $1`
	return r.getOne(ctx, query, title)
}

func (r *TagRepository) getOne(ctx context.Context, query string, arg any) (types.Tag, error) {
	var tag types.Tag
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&tag.ID,
		&tag.Title,
		&tag.Description,
		&tag.UserID,
		&tag.CreatedAt,
		&tag.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Tag{}, ErrNotFound
		}
		return types.Tag{}, err
	}
	return tag, nil
}

func (r *TagRepository) Create(ctx context.Context, tag types.Tag) (types.Tag, error) {
	now := time.Now()
	tag.CreatedAt = now
	tag.UpdatedAt = now

	const query = `
		INSERT INTO tags (title, description, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		tag.Title,
		tag.Description,
		tag.UserID,
		tag.CreatedAt,
		tag.UpdatedAt,
	).Scan(&tag.ID); err != nil {
		if isUniqueViolation(err) {
			return types.Tag{}, ErrDuplicate
		}
		return types.Tag{}, err
	}
	return tag, nil
}

func (r *TagRepository) Update(ctx context.Context, tag types.Tag) (types.Tag, error) {
	tag.UpdatedAt = time.Now()

	const query = `
		UPDATE tags
		SET title = $1,
			description = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(
		ctx,
		query,
		tag.Title,
		tag.Description,
		tag.UpdatedAt,
		tag.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Tag{}, ErrDuplicate
		}
		return types.Tag{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Tag{}, err
	}
	if affected == 0 {
		return types.Tag{}, ErrNotFound
	}
	return tag, nil
}

func (r *TagRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM tags WHERE id = $1`
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
