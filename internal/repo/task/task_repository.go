package task

import (
	"context"

	"github.com/mkrupp/homecase-todo/internal/domain"
)

// Repository defines the interface for task data persistence.
type Repository interface {
	// ListTasksForUser returns the tasks owned by the user in creation order.
	ListTasksForUser(ctx context.Context, userID int64) ([]*domain.Task, error)

	// GetTaskByID retrieves a task by its ID.
	// Returns the task and true if found, or nil and false if not found.
	GetTaskByID(ctx context.Context, id int64) (*domain.Task, bool, error)

	// CreateTask stores a new task owned by ownerID and returns it with its assigned ID.
	// Returns ErrUserNotFound if the owner does not exist.
	CreateTask(ctx context.Context, content string, ownerID int64) (*domain.Task, error)

	// UpdateTaskContent replaces the content of a task and returns the updated task.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateTaskContent(ctx context.Context, taskID int64, content string) (*domain.Task, error)

	// DeleteTask removes a task.
	// Returns ErrTaskNotFound if the task does not exist.
	DeleteTask(ctx context.Context, taskID int64) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func() (Repository, error)
