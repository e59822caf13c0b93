package graceful

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGracefulShutdownRunsAllOperations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Int32
	var deadlineSet atomic.Bool

	wait := GracefulShutdown(ctx, time.Second, map[string]Operation{
		"db": func(ctx context.Context) error {
			ran.Add(1)
			_, ok := ctx.Deadline()
			deadlineSet.Store(ok && ctx.Err() == nil)
			return nil
		},
		"bot": func(context.Context) error {
			ran.Add(1)
			return errors.New("already stopped")
		},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	cancel()

	select {
	case <-wait:
	case <-time.After(2 * time.Second):
		require.FailNow(t, "shutdown did not complete")
	}
	assert.Equal(t, int32(2), ran.Load())
	assert.True(t, deadlineSet.Load(), "operations get a live context with the timeout")
}

func TestGracefulShutdownTimesOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	wait := GracefulShutdown(ctx, 20*time.Millisecond, map[string]Operation{
		"slow": func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	cancel()

	select {
	case <-wait:
	case <-time.After(time.Second):
		require.FailNow(t, "timeout was not applied")
	}
}

func TestSequenceRunsInOrder(t *testing.T) {
	var order []string
	step := func(name string, err error) Operation {
		return func(context.Context) error {
			order = append(order, name)
			return err
		}
	}

	err := Sequence(
		step("http", nil),
		step("bot", errors.New("bot already stopped")),
		step("db", nil),
	)(context.Background())

	assert.Equal(t, []string{"http", "bot", "db"}, order)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot already stopped")

	assert.NoError(t, Sequence()(context.Background()))
}
