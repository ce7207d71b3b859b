package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkrupp/homecase-todo/internal/domain"
	"github.com/mkrupp/homecase-todo/internal/infra/database"
	"github.com/mkrupp/homecase-todo/internal/infra/logging"
)

// SQLUserRepository implements Repository on top of the shared relational store.
type SQLUserRepository struct {
	db  *database.DB
	log logging.Logger
}

var _ Repository = (*SQLUserRepository)(nil)

// SQLUserRepositoryFactory creates a factory function that returns a new SQLUserRepository.
// The factory function implements the RepositoryFactory type.
func SQLUserRepositoryFactory(db *database.DB) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLUserRepository(db), nil
	}
}

// NewSQLUserRepository creates a new SQLUserRepository using an opened database.
func NewSQLUserRepository(db *database.DB) *SQLUserRepository {
	return &SQLUserRepository{
		db:  db,
		log: logging.GetLogger("repo.user.sql_user_repository").With(logging.Group("db", "driver", db.Driver())),
	}
}

const selectUser = `SELECT id, username, password_hash, created_at FROM "user"`

// CreateUser implements Repository.CreateUser.
func (r *SQLUserRepository) CreateUser(ctx context.Context, username string, passwordHash []byte) (*domain.User, error) {
	user := &domain.User{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			r.db.Rebind(`INSERT INTO "user" (username, password_hash, created_at) VALUES (?, ?, ?) RETURNING id`),
			user.Username,
			user.PasswordHash,
			user.CreatedAt,
		).Scan(&user.ID)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return errors.Join(domain.ErrUserAlreadyExists, err)
			}

			return errors.Join(domain.ErrStorage, err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	r.log.DebugContext(ctx, "user inserted", logging.Group("user", "id", user.ID))

	return user, nil
}

// GetUserByUsername implements Repository.GetUserByUsername.
func (r *SQLUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	return r.getUser(ctx, r.db.Rebind(selectUser+` WHERE username = ?`), username)
}

// GetUserByID implements Repository.GetUserByID.
func (r *SQLUserRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, bool, error) {
	return r.getUser(ctx, r.db.Rebind(selectUser+` WHERE id = ?`), id)
}

func (r *SQLUserRepository) getUser(ctx context.Context, query string, arg any) (*domain.User, bool, error) {
	var user domain.User

	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query user: %w", errors.Join(domain.ErrStorage, err))
	}

	user.CreatedAt = user.CreatedAt.UTC()

	return &user, true, nil
}

// Close implements Repository.Close. The database is shared and closed by its owner.
func (r *SQLUserRepository) Close() error {
	return nil
}
