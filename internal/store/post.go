package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/inkpress/apiserver/types"
)

// PostRepository handles persistence for posts.
type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) List(ctx context.Context, offset, limit int) ([]types.Post, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM posts`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, title, description, excerpt, category_id, tag_ids, user_id, is_active, is_public, featured_image, created_at, updated_at
		FROM posts
		ORDER BY id
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	posts := make([]types.Post, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

func (r *PostRepository) Get(ctx context.Context, id int) (types.Post, error) {
	const query = `
		SELECT id, title, description, excerpt, category_id, tag_ids, user_id, is_active, is_public, featured_image, created_at, updated_at
		FROM posts
		WHERE id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Post{}, ErrNotFound
		}
		return types.Post{}, err
	}
	return post, nil
}

func (r *PostRepository) GetByTitle(ctx context.Context, title string) (types.Post, error) {
	const query = `
		SELECT id, title, description, excerpt, category_id, tag_ids, user_id, is_active, is_public, featured_image, created_at, updated_at
		FROM posts
		WHERE title = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, title))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Post{}, ErrNotFound
		}
		return types.Post{}, err
	}
	return post, nil
}

func (r *PostRepository) Create(ctx context.Context, post types.Post) (types.Post, error) {
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now

	tagsJSON, err := json.Marshal(post.TagIDs)
	if err != nil {
		return types.Post{}, err
	}

	const query = `
		INSERT INTO posts (title, description, excerpt, category_id, tag_ids, user_id, is_active, is_public, featured_image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		post.Title,
		post.Description,
		post.Excerpt,
		post.CategoryID,
		tagsJSON,
		post.UserID,
		post.IsActive,
		post.IsPublic,
		post.FeaturedImage,
		post.CreatedAt,
		post.UpdatedAt,
	).Scan(&post.ID); err != nil {
		if isUniqueViolation(err) {
			return types.Post{}, ErrDuplicate
		}
		return types.Post{}, err
	}

	return post, nil
}

func (r *PostRepository) Update(ctx context.Context, post types.Post) (types.Post, error) {
	post.UpdatedAt = time.Now()

	tagsJSON, err := json.Marshal(post.TagIDs)
	if err != nil {
		return types.Post{}, err
	}

	const query = `
		UPDATE posts
		SET title = $1,
			description = $2,
			excerpt = $3,
			category_id = $4,
			tag_ids = $5,
			is_active = $6,
			is_public = $7,
			featured_image = NULLIF($8, ''),
			updated_at = $9
		WHERE id = $10`
	result, err := r.db.ExecContext(
		ctx,
		query,
		post.Title,
		post.Description,
		post.Excerpt,
		post.CategoryID,
		tagsJSON,
		post.IsActive,
		post.IsPublic,
		post.FeaturedImage,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Post{}, ErrDuplicate
		}
		return types.Post{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Post{}, err
	}
	if affected == 0 {
		return types.Post{}, ErrNotFound
	}

	return post, nil
}

func (r *PostRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM posts WHERE id = $1`
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

func scanPost(row rowScanner) (types.Post, error) {
	var post types.Post
	var tagsJSON []byte
	var featuredImage sql.NullString
	if err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Description,
		&post.Excerpt,
		&post.CategoryID,
		&tagsJSON,
		&post.UserID,
		&post.IsActive,
		&post.IsPublic,
		&featuredImage,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		return types.Post{}, err
	}
	_ = json.Unmarshal(tagsJSON, &post.TagIDs)
	post.FeaturedImage = featuredImage.String
	return post, nil
}
