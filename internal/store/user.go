package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/inkpress/apiserver/types"
)

const userColumns = `
	id, email, username, full_name, role, verified, password_hash,
	refresh_token, verification_token, verification_token_expiry,
	password_reset_token, password_reset_token_expiry,
	avatar, cover_image, created_at, updated_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `SELECT` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `SELECT` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	const query = `SELECT` + userColumns + ` FROM users WHERE username = $1`
	return r.getOne(ctx, query, username)
}

func (r *UserRepository) GetByVerificationToken(ctx context.Context, token string) (types.User, error) {
	const query = `SELECT` + userColumns + ` FROM users WHERE verification_token = $1`
	return r.getOne(ctx, query, token)
}

func (r *UserRepository) GetByPasswordResetToken(ctx context.Context, token string) (types.User, error) {
	const query = `SELECT` + userColumns + ` FROM users WHERE password_reset_token = $1`
	return r.getOne(ctx, query, token)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (types.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (email, username, full_name, role, verified, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Email,
		user.Username,
		user.FullName,
		user.Role,
		user.Verified,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrDuplicate
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()

	const query = `
		UPDATE users
		SET email = $1,
			username = $2,
			full_name = $3,
			role = $4,
			verified = $5,
			password_hash = $6,
			refresh_token = NULLIF($7, ''),
			verification_token = NULLIF($8, ''),
			verification_token_expiry = $9,
			password_reset_token = NULLIF($10, ''),
			password_reset_token_expiry = $11,
			avatar = NULLIF($12, ''),
			cover_image = NULLIF($13, ''),
			updated_at = $14
		WHERE id = $15`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Email,
		user.Username,
		user.FullName,
		user.Role,
		user.Verified,
		user.PasswordHash,
		user.RefreshToken,
		user.VerificationToken,
		user.VerificationTokenExpiry,
		user.PasswordResetToken,
		user.PasswordResetTokenExpiry,
		user.Avatar,
		user.CoverImage,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrDuplicate
		}
		return types.User{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM users WHERE id = $1`
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	var refreshToken, verificationToken, resetToken sql.NullString
	var verificationExpiry, resetExpiry sql.NullTime
	var avatar, coverImage sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.FullName,
		&user.Role,
		&user.Verified,
		&user.PasswordHash,
		&refreshToken,
		&verificationToken,
		&verificationExpiry,
		&resetToken,
		&resetExpiry,
		&avatar,
		&coverImage,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return types.User{}, err
	}

	user.RefreshToken = refreshToken.String
	user.VerificationToken = verificationToken.String
	user.PasswordResetToken = resetToken.String
	user.Avatar = avatar.String
	user.CoverImage = coverImage.String
	if verificationExpiry.Valid {
		expiry := verificationExpiry.Time
		user.VerificationTokenExpiry = &expiry
	}
	if resetExpiry.Valid {
		expiry := resetExpiry.Time
		user.PasswordResetTokenExpiry = &expiry
	}
	return user, nil
}
