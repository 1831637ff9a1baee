package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questeded/quested/internal/logger"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test-tasks.db")

	client, err := NewClient(dbPath, DefaultConfig(), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestDBPathFor(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "quested-sessions-tasks.db"), DBPathFor(filepath.Join("data", "quested-sessions.db")))
	assert.Equal(t, "sessions-tasks", DBPathFor("sessions"))
}

func TestNewClient(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test-tasks.db")

	client, err := NewClient(dbPath, Config{}, nil)
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, DefaultConfig(), client.config)

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "tasks database should be created")

	assert.NoError(t, client.Close())
}

func TestClientStartStop(t *testing.T) {
	client := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Start(ctx)

	// Give it time to start
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
}

func TestStopWithoutStart(t *testing.T) {
	client := newTestClient(t)
	assert.True(t, client.Stop(context.Background()))
}

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) PurgeExpired(context.Context) (int64, error) {
	p.calls.Add(1)
	return 3, p.err
}

func TestPurgeExpiredTokensTaskConfig(t *testing.T) {
	cfg := PurgeExpiredTokensTask{}.Config()

	assert.Equal(t, "purge_expired_tokens", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestPurgeExpiredTokensProcessor(t *testing.T) {
	ctx := context.Background()

	t.Run("purges", func(t *testing.T) {
		purger := &countingPurger{}
		err := PurgeExpiredTokensProcessor(purger, logger.Nop())(ctx, PurgeExpiredTokensTask{})
		require.NoError(t, err)
		assert.Equal(t, int32(1), purger.calls.Load())
	})

	t.Run("wraps purge errors", func(t *testing.T) {
		boom := errors.New("boom")
		err := PurgeExpiredTokensProcessor(&countingPurger{err: boom}, logger.Nop())(ctx, PurgeExpiredTokensTask{})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("fails without purger", func(t *testing.T) {
		err := PurgeExpiredTokensProcessor(nil, logger.Nop())(ctx, PurgeExpiredTokensTask{})
		assert.Error(t, err)
	})
}

func TestPurgeTaskRunsThroughQueue(t *testing.T) {
	client := newTestClient(t)
	purger := &countingPurger{}
	client.Register(NewPurgeExpiredTokensQueue(purger, logger.Nop()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	id, err := client.Enqueue(PurgeExpiredTokensTask{})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	assert.Eventually(t, func() bool { return purger.calls.Load() == 1 }, 5*time.Second, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		status, err := client.Status(ctx, id)
		return err == nil && status == backlite.TaskStatusSuccess
	}, 5*time.Second, 20*time.Millisecond)
}

func TestAddBatch(t *testing.T) {
	client := newTestClient(t)

	ids, err := client.Add(PurgeExpiredTokensTask{}, PurgeExpiredTokensTask{}).Save()
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}
