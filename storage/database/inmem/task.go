package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/brighttutor/brightdesk/core/task"
)

type taskRepository struct {
	db *taskTable
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db *DB) task.Repository {
	return &taskRepository{db: db.task}
}

func (repo *taskRepository) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	t.ID = uuid.New().String()
	repo.db.table[t.ID] = &t
	return t, nil
}

func (repo *taskRepository) QueryTasks(_ context.Context, userID string) ([]task.Task, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	tasks := make([]task.Task, 0)
	for _, t := range repo.db.table {
		if t.UserID == userID {
			tasks = append(tasks, *t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// get must be called with the lock held.
func (repo *taskRepository) get(userID, id string) (*task.Task, error) {
	t, ok := repo.db.table[id]
	if !ok || t.UserID != userID {
		return nil, task.ErrNotFound
	}
	return t, nil
}

func (repo *taskRepository) GetTask(_ context.Context, userID, id string) (task.Task, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	t, err := repo.get(userID, id)
	if err != nil {
		return task.Task{}, err
	}
	return *t, nil
}

func (repo *taskRepository) SetTaskCompleted(_ context.Context, userID, id string, completed bool) (task.Task, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	t, err := repo.get(userID, id)
	if err != nil {
		return task.Task{}, err
	}
	t.IsCompleted = completed
	return *t, nil
}

func (repo *taskRepository) DeleteTask(_ context.Context, userID, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, err := repo.get(userID, id); err != nil {
		return err
	}
	delete(repo.db.table, id)
	return nil
}
