package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/KelvCodes/real-time-chat-app/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// unique_violation
const pgUniqueViolation = "23505"

type UserRepo struct {
	db *sql.DB
}

var _ domain.UserRepository = (*UserRepo)(nil)

func NewUserRepository(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, full_name, email, password_hash, profile_pic, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.FullName,
		&u.Email,
		&u.PasswordHash,
		&u.ProfilePic,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if uuid.Validate(id) != nil {
		return nil, domain.ErrUserNotFound
	}
	exec := GetExecutor(ctx, r.db)
	u, err := scanUser(exec.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	return u, err
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	exec := GetExecutor(ctx, r.db)
	u, err := scanUser(exec.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	return u, err
}

func (r *UserRepo) CreateUser(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		return domain.ErrInvalidUserID
	}
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO users (
			id, full_name, email, password_hash, profile_pic, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		u.ID,
		u.FullName,
		u.Email,
		u.PasswordHash,
		u.ProfilePic,
		u.CreatedAt,
		u.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *UserRepo) UpdateProfilePic(ctx context.Context, id, url string) (*domain.User, error) {
	if uuid.Validate(id) != nil {
		return nil, domain.ErrUserNotFound
	}
	exec := GetExecutor(ctx, r.db)
	u, err := scanUser(exec.QueryRowContext(ctx, `
		UPDATE users
		SET profile_pic = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	return u, err
}

func (r *UserRepo) ListUsersExcept(ctx context.Context, id string) ([]domain.User, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id::text <> $1
		ORDER BY full_name ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
