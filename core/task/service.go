package task

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/brighttutor/brightdesk/core"
)

type (
	// Repository stores tasks. Every operation is scoped to the owning user:
	// the task of another user is reported as ErrNotFound.
	Repository interface {
		CreateTask(ctx context.Context, t Task) (Task, error)
		// QueryTasks lists the tasks of userID by creation date, then ID.
		QueryTasks(ctx context.Context, userID string) ([]Task, error)
		GetTask(ctx context.Context, userID, id string) (Task, error)
		SetTaskCompleted(ctx context.Context, userID, id string, completed bool) (Task, error)
		DeleteTask(ctx context.Context, userID, id string) error
	}

	ServiceInterface interface {
		List(ctx context.Context, owner Owner) ([]Task, error)
		Create(ctx context.Context, owner Owner, nt NewTask) (Task, error)
		Get(ctx context.Context, owner Owner, id string) (Task, error)
		SetCompleted(ctx context.Context, owner Owner, id string, completed bool) (Task, error)
		Delete(ctx context.Context, owner Owner, id string) error
		Subscribe(ctx context.Context, owner Owner) (<-chan Snapshot, error)
	}

	service struct {
		repo     Repository
		notifier Notifier
		validate *validator.Validate
		logger   core.Logger
		now      func() time.Time
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, notifier Notifier, validate *validator.Validate, logger core.Logger) ServiceInterface {
	return &service{
		repo:     repo,
		notifier: notifier,
		validate: validate,
		logger:   logger,
		now:      time.Now,
	}
}

func (svc *service) List(ctx context.Context, owner Owner) ([]Task, error) {
	tasks, err := svc.repo.QueryTasks(ctx, owner.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

func (svc *service) Create(ctx context.Context, owner Owner, nt NewTask) (Task, error) {
	if err := nt.Validate(svc.validate); err != nil {
		return Task{}, err
	}

	t, err := svc.repo.CreateTask(ctx, Task{
		UserID:    owner.ID,
		UserEmail: owner.Email,
		Title:     nt.Title,
		CreatedAt: svc.now().UTC(),
		DueDate:   nt.dueDate(),
	})
	if err != nil {
		return Task{}, errors.Wrap(err, "creating task")
	}
	svc.publish(ctx, owner)
	return t, nil
}

func (svc *service) Get(ctx context.Context, owner Owner, id string) (Task, error) {
	return svc.repo.GetTask(ctx, owner.ID, id)
}

func (svc *service) SetCompleted(ctx context.Context, owner Owner, id string, completed bool) (Task, error) {
	t, err := svc.repo.SetTaskCompleted(ctx, owner.ID, id, completed)
	if err != nil {
		return Task{}, errors.Wrap(err, "updating task")
	}
	svc.publish(ctx, owner)
	return t, nil
}

func (svc *service) Delete(ctx context.Context, owner Owner, id string) error {
	if err := svc.repo.DeleteTask(ctx, owner.ID, id); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	svc.publish(ctx, owner)
	return nil
}

// publish notifies the owner's subscribers. The change is already stored, so failures are only logged.
func (svc *service) publish(ctx context.Context, owner Owner) {
	if err := svc.notifier.Publish(ctx, owner.ID); err != nil {
		svc.logger.Warn("publishing task change", errors.Wrap(err, owner.ID))
	}
}

// Subscribe streams the owner's task list: the current one first, then a fresh one after every change,
// until ctx is done. A consumer lagging behind only gets the latest list.
func (svc *service) Subscribe(ctx context.Context, owner Owner) (<-chan Snapshot, error) {
	// subscribe first so that no change between the first list and the subscription is missed
	changes, unsubscribe := svc.notifier.Subscribe(owner.ID)

	tasks, err := svc.List(ctx, owner)
	if err != nil {
		unsubscribe()
		return nil, err
	}

	out := make(chan Snapshot, 1)
	out <- Snapshot{Tasks: tasks}

	go func() {
		defer close(out)
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				tasks, err := svc.List(ctx, owner)
				if err != nil && ctx.Err() != nil {
					return
				}
				if err != nil {
					svc.logger.Error("refreshing task subscription", err)
				}

				// drop the snapshot the consumer has not read yet
				select {
				case <-out:
				default:
				}
				select {
				case out <- Snapshot{Tasks: tasks, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
