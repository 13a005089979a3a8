package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mihribandursun/sentiment-analysis/internal/models"
)

type AuthRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindConflicts(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error)
}

type authRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewAuthRepository(db *sqlx.DB, logger *zap.Logger) AuthRepository {
	return &authRepository{db: db, logger: logger}
}

func (r *authRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := r.db.Rebind(`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?) RETURNING id`)
	if err := r.db.QueryRowxContext(ctx, query, user.Username, user.Email, user.PasswordHash, user.CreatedAt).Scan(&user.ID); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *authRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := r.db.Rebind(`SELECT id, username, email, password_hash, created_at FROM users WHERE email = ?`)
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// FindConflicts reports which of the unique user fields are already taken.
func (r *authRepository) FindConflicts(ctx context.Context, username, email string) (bool, bool, error) {
	var rows []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	query := r.db.Rebind(`SELECT username, email FROM users WHERE username = ? OR email = ?`)
	if err := r.db.SelectContext(ctx, &rows, query, username, email); err != nil {
		return false, false, fmt.Errorf("failed to check existing users: %w", err)
	}

	var usernameTaken, emailTaken bool
	for _, row := range rows {
		usernameTaken = usernameTaken || row.Username == username
		emailTaken = emailTaken || row.Email == email
	}
	return usernameTaken, emailTaken, nil
}
