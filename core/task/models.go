package task

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/brighttutor/brightdesk/core"
)

// DateLayout is the format of due dates sent by clients.
const DateLayout = "2006-01-02"

var (
	ErrNotFound = errors.New("task not found")

	errEmptyTitle = "Task title cannot be empty."
)

type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	UserEmail   string     `json:"user_email"`
	Title       string     `json:"task_title"`
	IsCompleted bool       `json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"` // UTC
	DueDate     *time.Time `json:"due_date"`
}

// Owner identifies the signed-in user a task operation runs for.
type Owner struct {
	ID    string
	Email string
}

type NewTask struct {
	Title   string `json:"task_title"`
	DueDate string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.DueDate = core.CleanString(nt.DueDate)
	if nt.Title == "" {
		return core.NewValidationError(
			errors.New(errEmptyTitle),
			core.FieldError{Field: "task_title", Error: errEmptyTitle},
		)
	}
	return validate.Struct(nt)
}

// dueDate parses DueDate; call after Validate.
func (nt NewTask) dueDate() *time.Time {
	if nt.DueDate == "" {
		return nil
	}
	d, err := time.ParseInLocation(DateLayout, nt.DueDate, time.UTC)
	if err != nil {
		return nil
	}
	return &d
}

type UpdateTask struct {
	IsCompleted *bool `json:"is_completed" validate:"required"`
}

func (ut UpdateTask) Validate(validate *validator.Validate) error { return validate.Struct(ut) }

// Snapshot is the state of a user's task list at some point of a subscription.
// Err is set when the list could not be fetched; the subscription stays open.
type Snapshot struct {
	Tasks []Task
	Err   error
}
