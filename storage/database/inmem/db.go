package inmemdb

import (
	"sync"

	"github.com/brighttutor/brightdesk/core/task"
	"github.com/brighttutor/brightdesk/core/user"
)

type (
	// DB is an in-memory store used in development and tests.
	DB struct {
		user *userTable
		task *taskTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	taskTable struct {
		table map[string]*task.Task
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*user.User)},
		task: &taskTable{table: make(map[string]*task.Task)},
	}
}
