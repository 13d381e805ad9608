package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/brighttutor/brightdesk/core"
	"github.com/brighttutor/brightdesk/core/task"
)

type taskRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	UserEmail   string    `db:"user_email"`
	Title       string    `db:"task_title"`
	IsCompleted bool      `db:"is_completed"`
	CreatedAt   time.Time `db:"created_at"`
	DueDate     null.Time `db:"due_date"`
}

func boilTask(t task.Task) taskRow {
	return taskRow{
		ID:          t.ID,
		UserID:      t.UserID,
		UserEmail:   t.UserEmail,
		Title:       t.Title,
		IsCompleted: t.IsCompleted,
		CreatedAt:   t.CreatedAt,
		DueDate:     null.TimeFromPtr(t.DueDate),
	}
}

func unboilTask(row taskRow) task.Task {
	t := task.Task{
		ID:          row.ID,
		UserID:      row.UserID,
		UserEmail:   row.UserEmail,
		Title:       row.Title,
		IsCompleted: row.IsCompleted,
		CreatedAt:   row.CreatedAt.UTC(),
	}
	if row.DueDate.Valid {
		d := row.DueDate.Time.UTC()
		t.DueDate = &d
	}
	return t
}

type taskRepository struct {
	db core.DBExecutor
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db core.DBExecutor) task.Repository {
	return &taskRepository{db: db}
}

const taskColumns = `id, user_id, user_email, task_title, is_completed, created_at, due_date`

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	q := `INSERT INTO tasks (` + taskColumns + `)
		VALUES (:id, :user_id, :user_email, :task_title, :is_completed, :created_at, :due_date)
		RETURNING ` + taskColumns
	stmt, args, err := bindNamed(repo.db, q, boilTask(t))
	if err != nil {
		return task.Task{}, err
	}
	var row taskRow
	if err = repo.db.GetContext(ctx, &row, stmt, args...); err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return unboilTask(row), nil
}

func (repo *taskRepository) QueryTasks(ctx context.Context, userID string) ([]task.Task, error) {
	var rows []taskRow
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 ORDER BY created_at, id`
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "selecting tasks")
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, unboilTask(row))
	}
	return tasks, nil
}

func (repo *taskRepository) GetTask(ctx context.Context, userID, id string) (task.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return task.Task{}, task.ErrNotFound
	}
	var row taskRow
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 AND id = $2`
	if err := repo.db.GetContext(ctx, &row, q, userID, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, errors.Wrap(err, "selecting task")
	}
	return unboilTask(row), nil
}

func (repo *taskRepository) SetTaskCompleted(ctx context.Context, userID, id string, completed bool) (task.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return task.Task{}, task.ErrNotFound
	}
	var row taskRow
	q := `UPDATE tasks SET is_completed = $3 WHERE user_id = $1 AND id = $2 RETURNING ` + taskColumns
	if err := repo.db.GetContext(ctx, &row, q, userID, id, completed); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	return unboilTask(row), nil
}

func (repo *taskRepository) DeleteTask(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return task.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return errors.Wrap(err, "deleting task")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting task")
	}
	if n == 0 {
		return task.ErrNotFound
	}
	return nil
}

// bindNamed expands the :name parameters of query for the executor's driver.
func bindNamed(db sqlx.ExtContext, query string, arg interface{}) (string, []interface{}, error) {
	q, args, err := sqlx.Named(query, arg)
	if err != nil {
		return "", nil, errors.Wrap(err, "binding query")
	}
	return db.Rebind(q), args, nil
}
