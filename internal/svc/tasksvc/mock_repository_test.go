package tasksvc_test

import (
	"context"
	"sync"
	"time"

	"github.com/mkrupp/homecase-todo/internal/domain"
)

// mockTaskRepository implements task.Repository for testing.
type mockTaskRepository struct {
	tasks    map[int64]*domain.Task
	nextID   int64
	writeErr error
	m        sync.Mutex
}

func newMockTaskRepo() *mockTaskRepository {
	return &mockTaskRepository{
		tasks:  make(map[int64]*domain.Task),
		nextID: 1,
	}
}

func (m *mockTaskRepository) ListTasksForUser(_ context.Context, userID int64) ([]*domain.Task, error) {
	m.m.Lock()
	defer m.m.Unlock()

	tasks := make([]*domain.Task, 0)
	for id := int64(1); id < m.nextID; id++ {
		if task, ok := m.tasks[id]; ok && task.UserID == userID {
			copied := *task
			tasks = append(tasks, &copied)
		}
	}
	return tasks, nil
}

func (m *mockTaskRepository) GetTaskByID(_ context.Context, id int64) (*domain.Task, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return nil, false, nil
	}
	copied := *task
	return &copied, true, nil
}

func (m *mockTaskRepository) CreateTask(_ context.Context, content string, ownerID int64) (*domain.Task, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.writeErr != nil {
		return nil, m.writeErr
	}
	task := &domain.Task{ID: m.nextID, Content: content, CreatedAt: time.Now().UTC(), UserID: ownerID}
	m.tasks[task.ID] = task
	m.nextID++
	copied := *task
	return &copied, nil
}

func (m *mockTaskRepository) UpdateTaskContent(_ context.Context, taskID int64, content string) (*domain.Task, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.writeErr != nil {
		return nil, m.writeErr
	}
	task, ok := m.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	task.Content = content
	copied := *task
	return &copied, nil
}

func (m *mockTaskRepository) DeleteTask(_ context.Context, taskID int64) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}
	if _, ok := m.tasks[taskID]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(m.tasks, taskID)
	return nil
}

func (m *mockTaskRepository) Close() error {
	return nil
}

func (m *mockTaskRepository) setWriteErr(err error) {
	m.m.Lock()
	defer m.m.Unlock()

	m.writeErr = err
}

func (m *mockTaskRepository) content(id int64) string {
	m.m.Lock()
	defer m.m.Unlock()

	if task, ok := m.tasks[id]; ok {
		return task.Content
	}
	return ""
}

func (m *mockTaskRepository) count() int {
	m.m.Lock()
	defer m.m.Unlock()

	return len(m.tasks)
}
