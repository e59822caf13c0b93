package graceful

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"MaturityBoard/internal/utils/logger/sl"
)

type Operation func(ctx context.Context) error

// Sequence runs ops one after another with the same context. Every op runs
// even if an earlier one fails; the errors are joined.
func Sequence(ops ...Operation) Operation {
	return func(ctx context.Context) error {
		var errs []error
		for _, op := range ops {
			if err := op(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

// GracefulShutdown waits for a termination signal, or for ctx to be done, and
// then runs every cleanup operation in parallel within timeout. The returned
// channel is closed once all operations have returned.
func GracefulShutdown(ctx context.Context, timeout time.Duration, ops map[string]Operation, logger *slog.Logger) <-chan struct{} {
	op := "GracefulShutdown()"
	log := logger.With(
		slog.String("op", op))

	wait := make(chan struct{})
	go func() {
		s := make(chan os.Signal, 1)
		signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(s)

		select {
		case sig := <-s:
			log.Info("shutting down", slog.String("signal", sig.String()))
		case <-ctx.Done():
			log.Info("shutting down", slog.String("reason", "context done"))
		}

		ctxTimeout, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		var wg sync.WaitGroup

		for key, operation := range ops {
			wg.Add(1)
			go func() {
				defer wg.Done()

				log.Info("cleaning up", slog.String("process", key))
				if err := operation(ctxTimeout); err != nil {
					log.Error("error clean up", slog.String("process", key), sl.Err(err))
					return
				}

				log.Info("shutdown gracefully", slog.String("process", key))
			}()
		}

		wg.Wait()
		log.Info("graceful shutdown completed")

		close(wait)
	}()

	return wait
}
