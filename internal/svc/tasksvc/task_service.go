package tasksvc

import (
	"context"
	"fmt"

	"github.com/mkrupp/homecase-todo/internal/domain"
	"github.com/mkrupp/homecase-todo/internal/infra/logging"
	"github.com/mkrupp/homecase-todo/internal/repo/task"
)

// TaskService manages the tasks of authenticated users and enforces ownership.
type TaskService struct {
	TaskRepo task.Repository
	Log      logging.Logger
}

// NewTaskService creates a new TaskService with the given task repository factory.
func NewTaskService(repoFactory task.RepositoryFactory) (*TaskService, error) {
	taskRepo, err := repoFactory()
	if err != nil {
		return nil, fmt.Errorf("new task repo: %w", err)
	}

	return &TaskService{
		TaskRepo: taskRepo,
		Log:      logging.GetLogger("svc.tasksvc.task_service"),
	}, nil
}

// ListTasks returns the tasks owned by the user.
func (s *TaskService) ListTasks(ctx context.Context, owner domain.Identity) ([]*domain.Task, error) {
	tasks, err := s.TaskRepo.ListTasksForUser(ctx, owner.UserID())
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

// CreateTask validates the content and stores a new task owned by the user.
func (s *TaskService) CreateTask(ctx context.Context, owner domain.Identity, content string) (_ *domain.Task, err error) {
	log := s.Log.With(logging.Group("task", "user_id", owner.UserID()))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "create task failed", "error", err)
		} else {
			log.DebugContext(ctx, "task created")
		}
	}()

	content, err = domain.NormalizeTaskContent(content)
	if err != nil {
		return nil, fmt.Errorf("validate content: %w", err)
	}

	created, err := s.TaskRepo.CreateTask(ctx, content, owner.UserID())
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	return created, nil
}

// GetOwnedTask returns the task if it exists and belongs to the user.
// Returns ErrTaskNotFound for unknown IDs and ErrForbidden for foreign tasks.
func (s *TaskService) GetOwnedTask(ctx context.Context, owner domain.Identity, taskID int64) (*domain.Task, error) {
	found, ok, err := s.TaskRepo.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	} else if !ok {
		return nil, domain.ErrTaskNotFound
	}

	if found.UserID != owner.UserID() {
		return nil, domain.ErrForbidden
	}

	return found, nil
}

// UpdateTask replaces the content of a task owned by the user. Ownership is
// checked before the content is validated.
func (s *TaskService) UpdateTask(ctx context.Context, owner domain.Identity, taskID int64, content string) (_ *domain.Task, err error) {
	log := s.Log.With(logging.Group("task", "id", taskID, "user_id", owner.UserID()))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "update task failed", "error", err)
		} else {
			log.DebugContext(ctx, "task updated")
		}
	}()

	if _, err := s.GetOwnedTask(ctx, owner, taskID); err != nil {
		return nil, err
	}

	content, err = domain.NormalizeTaskContent(content)
	if err != nil {
		return nil, fmt.Errorf("validate content: %w", err)
	}

	updated, err := s.TaskRepo.UpdateTaskContent(ctx, taskID, content)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	return updated, nil
}

// DeleteTask removes a task owned by the user.
func (s *TaskService) DeleteTask(ctx context.Context, owner domain.Identity, taskID int64) (err error) {
	log := s.Log.With(logging.Group("task", "id", taskID, "user_id", owner.UserID()))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "delete task failed", "error", err)
		} else {
			log.DebugContext(ctx, "task deleted")
		}
	}()

	if _, err := s.GetOwnedTask(ctx, owner, taskID); err != nil {
		return err
	}

	if err := s.TaskRepo.DeleteTask(ctx, taskID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	return nil
}

// Close releases resources held by the service.
func (s *TaskService) Close() error {
	if err := s.TaskRepo.Close(); err != nil {
		return fmt.Errorf("close task repo: %w", err)
	}

	return nil
}
