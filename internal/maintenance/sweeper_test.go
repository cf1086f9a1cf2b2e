package maintenance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	mu     sync.Mutex
	calls  int
	err    error
	cancel context.CancelFunc
	stopAt int
}

func (s *countingSweeper) SweepExpired(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.stopAt > 0 && s.calls >= s.stopAt {
		s.cancel()
	}
	return 3, s.err
}

func TestSweepOnce(t *testing.T) {
	removed, err := SweepOnce(context.Background(), zerolog.Nop(), &countingSweeper{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	_, err = SweepOnce(context.Background(), zerolog.Nop(), &countingSweeper{err: errors.New("db down")})
	assert.Error(t, err)
}

func TestRunSessionSweeperStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper := &countingSweeper{cancel: cancel, stopAt: 3}

	done := make(chan error, 1)
	go func() {
		done <- RunSessionSweeper(ctx, zerolog.Nop(), sweeper, time.Millisecond)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
	sweeper.mu.Lock()
	defer sweeper.mu.Unlock()
	assert.GreaterOrEqual(t, sweeper.calls, 3)
}

func TestRunSessionSweeperKeepsGoingAfterErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper := &countingSweeper{cancel: cancel, stopAt: 2, err: errors.New("db down")}

	err := RunSessionSweeper(ctx, zerolog.Nop(), sweeper, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 2, sweeper.calls)
}

func TestRunSessionSweeperRejectsZeroInterval(t *testing.T) {
	err := RunSessionSweeper(context.Background(), zerolog.Nop(), &countingSweeper{}, 0)
	assert.Error(t, err)
}
