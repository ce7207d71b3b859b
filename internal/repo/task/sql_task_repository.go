package task

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

// SQLTaskRepository implements Repository on top of the shared relational store.
type SQLTaskRepository struct {
	db  *database.DB
	log logging.Logger
}

var _ Repository = (*SQLTaskRepository)(nil)

// SQLTaskRepositoryFactory creates a factory function that returns a new SQLTaskRepository.
func SQLTaskRepositoryFactory(db *database.DB) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLTaskRepository(db), nil
	}
}

// NewSQLTaskRepository creates a new SQLTaskRepository using an opened database.
func NewSQLTaskRepository(db *database.DB) *SQLTaskRepository {
	return &SQLTaskRepository{
		db:  db,
		log: logging.GetLogger("repo.task.sql_task_repository").With(logging.Group("db", "driver", db.Driver())),
	}
}

const selectTask = `SELECT id, content, date_created, user_id FROM todo`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task

	if err := row.Scan(&task.ID, &task.Content, &task.CreatedAt, &task.UserID); err != nil {
		return nil, err //nolint:wrapcheck
	}

	task.CreatedAt = task.CreatedAt.UTC()

	return &task, nil
}

// ListTasksForUser implements Repository.ListTasksForUser.
func (r *SQLTaskRepository) ListTasksForUser(ctx context.Context, userID int64) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(selectTask+` WHERE user_id = ? ORDER BY id`), userID)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", errors.Join(domain.ErrStorage, err))
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0)

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", errors.Join(domain.ErrStorage, err))
		}

		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", errors.Join(domain.ErrStorage, err))
	}

	return tasks, nil
}

// GetTaskByID implements Repository.GetTaskByID.
func (r *SQLTaskRepository) GetTaskByID(ctx context.Context, id int64) (*domain.Task, bool, error) {
	task, err := scanTask(r.db.QueryRowContext(ctx, r.db.Rebind(selectTask+` WHERE id = ?`), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query task: %w", errors.Join(domain.ErrStorage, err))
	}

	return task, true, nil
}

// CreateTask implements Repository.CreateTask.
func (r *SQLTaskRepository) CreateTask(ctx context.Context, content string, ownerID int64) (*domain.Task, error) {
	task := &domain.Task{
		Content:   content,
		CreatedAt: time.Now().UTC(),
		UserID:    ownerID,
	}

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			r.db.Rebind(`INSERT INTO todo (content, date_created, user_id) VALUES (?, ?, ?) RETURNING id`),
			task.Content,
			task.CreatedAt,
			task.UserID,
		).Scan(&task.ID)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return errors.Join(domain.ErrUserNotFound, err)
			}

			return errors.Join(domain.ErrStorage, err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	r.log.DebugContext(ctx, "task inserted", logging.Group("task", "id", task.ID, "user_id", ownerID))

	return task, nil
}

// UpdateTaskContent implements Repository.UpdateTaskContent.
func (r *SQLTaskRepository) UpdateTaskContent(ctx context.Context, taskID int64, content string) (*domain.Task, error) {
	var task *domain.Task

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.db.Rebind(`UPDATE todo SET content = ? WHERE id = ?`), content, taskID)
		if err != nil {
			return errors.Join(domain.ErrStorage, err)
		}

		if n, err := res.RowsAffected(); err != nil {
			return errors.Join(domain.ErrStorage, err)
		} else if n == 0 {
			return domain.ErrTaskNotFound
		}

		task, err = scanTask(tx.QueryRowContext(ctx, r.db.Rebind(selectTask+` WHERE id = ?`), taskID))
		if err != nil {
			return errors.Join(domain.ErrStorage, err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	r.log.DebugContext(ctx, "task updated", logging.Group("task", "id", taskID))

	return task, nil
}

// DeleteTask implements Repository.DeleteTask.
func (r *SQLTaskRepository) DeleteTask(ctx context.Context, taskID int64) error {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM todo WHERE id = ?`), taskID)
		if err != nil {
			return errors.Join(domain.ErrStorage, err)
		}

		if n, err := res.RowsAffected(); err != nil {
			return errors.Join(domain.ErrStorage, err)
		} else if n == 0 {
			return domain.ErrTaskNotFound
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	r.log.DebugContext(ctx, "task deleted", logging.Group("task", "id", taskID))

	return nil
}

// Close implements Repository.Close. The database is shared and closed by its owner.
func (r *SQLTaskRepository) Close() error {
	return nil
}
