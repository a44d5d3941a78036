package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
)

// ContextWithSignals returns a context cancelled by SIGINT or SIGTERM. The
// first signal starts a graceful shutdown; a second one exits at once with
// status 130, for when draining connections hangs.
func (a *App) ContextWithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return withSignals(parent, a.Logger, func() { os.Exit(130) }, syscall.SIGINT, syscall.SIGTERM)
}

// withSignals takes the logger lazily because setupCommand replaces it
// after flags are parsed.
func withSignals(parent context.Context, logger func() *zerolog.Logger, force func(), sigs ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := make(chan struct{})
	var once sync.Once
	stopAll := func() {
		once.Do(func() { close(stop) })
		cancel()
	}

	ch := make(chan os.Signal, 2)
	signal.Notify(ch, sigs...)

	go func() {
		defer signal.Stop(ch)

		select {
		case sig := <-ch:
			logger().Info().Str("signal", sig.String()).Msg("Signal received, shutting down")
			cancel()
		case <-stop:
			return
		case <-parent.Done():
			return
		}

		select {
		case sig := <-ch:
			logger().Warn().Str("signal", sig.String()).Msg("Second signal received, exiting")
			force()
		case <-stop:
		}
	}()

	return ctx, stopAll
}
