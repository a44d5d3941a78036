package app

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t569/scanapi/pkg/logging"
)

func TestWithSignals(t *testing.T) {
	tl := logging.NewTestLogger(t)
	forced := make(chan struct{}, 1)
	ctx, cancel := withSignals(context.Background(),
		func() *zerolog.Logger { return tl.Logger },
		func() { forced <- struct{}{} },
		syscall.SIGUSR1)
	defer cancel()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context was not cancelled by the first signal")
	}
	assert.Empty(t, forced, "first signal must not force an exit")

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
	select {
	case <-forced:
	case <-time.After(2 * time.Second):
		t.Fatal("second signal did not force an exit")
	}

	tl.AssertContains(t, "Signal received, shutting down")
	tl.AssertContains(t, "Second signal received, exiting")
}

func TestWithSignals_Cancel(t *testing.T) {
	ctx, cancel := withSignals(context.Background(),
		func() *zerolog.Logger { return logging.NewNopLogger() },
		func() { t.Error("forced exit after cancel") },
		syscall.SIGUSR2)
	cancel()
	cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("cancel did not cancel the context")
	}
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
