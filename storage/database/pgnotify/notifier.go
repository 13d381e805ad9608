// Package pgnotify fans task changes out to every API instance through Postgres LISTEN/NOTIFY.
package pgnotify

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/brighttutor/brightdesk/core"
	"github.com/brighttutor/brightdesk/core/task"
)

const Channel = "task_changes"

// Notifier publishes changes with pg_notify and relays the notifications it listens to into a local hub.
type Notifier struct {
	db       core.DBExecutor
	hub      *task.Hub
	listener *pq.Listener
	logger   core.Logger
	done     chan struct{}
}

var _ task.Notifier = (*Notifier)(nil)

// New starts listening on Channel. dsn must point to the database db is connected to.
func New(db core.DBExecutor, dsn string, hub *task.Hub, logger core.Logger) (*Notifier, error) {
	n := &Notifier{
		db:     db,
		hub:    hub,
		logger: logger,
		done:   make(chan struct{}),
	}
	n.listener = pq.NewListener(dsn, 100*time.Millisecond, 10*time.Second, n.onEvent)
	if err := n.listener.Listen(Channel); err != nil {
		_ = n.listener.Close()
		return nil, errors.Wrap(err, "listening to "+Channel)
	}
	go n.relay()
	return n, nil
}

func (n *Notifier) onEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnectionAttemptFailed:
		n.logger.Warn("task notifications: connection attempt failed", err)
	case pq.ListenerEventDisconnected:
		n.logger.Warn("task notifications: disconnected", err)
	case pq.ListenerEventReconnected:
		n.logger.Info("task notifications: reconnected")
	}
}

func (n *Notifier) relay() {
	defer close(n.done)
	for notif := range n.listener.Notify {
		if notif == nil {
			// reconnected: notifications may have been lost
			n.hub.BroadcastAll()
			continue
		}
		n.hub.Broadcast(notif.Extra)
	}
}

// Publish notifies every instance that the tasks of userID changed.
func (n *Notifier) Publish(ctx context.Context, userID string) error {
	_, err := n.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", Channel, userID)
	return errors.Wrap(err, "notifying "+Channel)
}

func (n *Notifier) Subscribe(userID string) (<-chan struct{}, func()) {
	return n.hub.Subscribe(userID)
}

// Close stops listening and closes every subscription.
func (n *Notifier) Close() error {
	err := n.listener.Close()
	<-n.done
	n.hub.Close()
	return errors.Wrap(err, "closing listener")
}
