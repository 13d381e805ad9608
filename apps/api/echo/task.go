package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/brighttutor/brightdesk/core"
	"github.com/brighttutor/brightdesk/core/task"
	"github.com/brighttutor/brightdesk/core/user"
)

// heartbeat keeps idle streams open through proxies.
var heartbeat = 15 * time.Second

type taskApi struct {
	revoked  *revocations
	svc      task.ServiceInterface
	usrSvc   user.ServiceInterface
	validate *validator.Validate
	logger   core.Logger
}

func registerTaskAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	revoked *revocations,
	svc task.ServiceInterface,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
	logger core.Logger,
) {
	api := taskApi{
		revoked:  revoked,
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
		logger:   logger,
	}

	tg := g.Group("/tasks", jwt, activeUserMiddleware(usrSvc))
	tg.GET("", api.list)
	tg.POST("", api.create)
	tg.GET("/stream", api.stream)
	tg.GET("/:id", api.retrieve)
	tg.PATCH("/:id", api.update)
	tg.DELETE("/:id", api.destroy)
}

func contextOwner(ctx echo.Context) (task.Owner, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return task.Owner{}, errors.Wrap(err, "getting context claims")
	}
	return claims.owner(), nil
}

// Handlers

func (api *taskApi) list(ctx echo.Context) error {
	owner, err := contextOwner(ctx)
	if err != nil {
		return err
	}
	tasks, err := api.svc.List(ctx.Request().Context(), owner)
	if err != nil {
		return withRetry(errors.Wrap(err, "listing tasks"), msgRealtime)
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) create(ctx echo.Context) error {
	owner, err := contextOwner(ctx)
	if err != nil {
		return err
	}
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}

	t, err := api.svc.Create(ctx.Request().Context(), owner, data)
	if err != nil {
		return withRetry(errors.Wrap(err, "creating task"), msgAddTask)
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *taskApi) retrieve(ctx echo.Context) error {
	owner, err := contextOwner(ctx)
	if err != nil {
		return err
	}
	t, err := api.svc.Get(ctx.Request().Context(), owner, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) update(ctx echo.Context) error {
	owner, err := contextOwner(ctx)
	if err != nil {
		return err
	}
	var data task.UpdateTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.SetCompleted(ctx.Request().Context(), owner, ctx.Param("id"), *data.IsCompleted)
	if err != nil {
		return withRetry(errors.Wrap(err, "updating task"), msgUpdateTask)
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	owner, err := contextOwner(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), owner, ctx.Param("id")); err != nil {
		return withRetry(errors.Wrap(err, "deleting task"), msgDeleteTask)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// stream pushes the task list as Server-Sent Events: a `tasks` event with the whole list on connect
// and after every change, an `error` event when the list could not be refreshed.
// It ends when the client disconnects or signs out.
func (api *taskApi) stream(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	reqCtx := ctx.Request().Context()

	snapshots, err := api.svc.Subscribe(reqCtx, claims.owner())
	if err != nil {
		return withRetry(errors.Wrap(err, "subscribing to tasks"), msgRealtime)
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-reqCtx.Done():
			return nil
		case <-ticker.C:
			if api.revoked.isRevoked(claims.Id) {
				return nil
			}
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case s, ok := <-snapshots:
			if !ok {
				return nil
			}
			if err := writeSnapshot(res, s); err != nil {
				api.logger.Warn("writing task stream", errors.Wrap(err, claims.Subject))
				return nil
			}
			res.Flush()
		}
	}
}

func writeSnapshot(res *echo.Response, s task.Snapshot) error {
	event, payload := "tasks", interface{}(s.Tasks)
	if s.Err != nil {
		event, payload = "error", echo.Map{"error": msgRealtime}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encoding snapshot")
	}
	_, err = fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event, data)
	return err
}
