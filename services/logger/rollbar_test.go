package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brighttutor/brightdesk/core"
	"github.com/brighttutor/brightdesk/core/user"
)

func TestRollbarLogger_print(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), core.NewTestConfig())

	usr := user.User{ID: "u1", Email: "jane@test.io"}
	logger.Warn("publishing task change", errors.New("boom"), usr, map[string]interface{}{"task": "t1"})

	out := buf.String()
	assert.Contains(t, out, "WARN: publishing task change")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "map[task:t1]")
	assert.NotContains(t, out, "jane@test.io")
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := NewRollbarLogger(log.New(&bytes.Buffer{}, "", 0), core.NewTestConfig())

	err := errors.New("boom")
	args := logger.prepare("msg", []interface{}{err, user.User{ID: "u1"}, user.User{ID: "u2"}})
	assert.Equal(t, []interface{}{"msg", err}, args)
}
