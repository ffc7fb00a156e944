// Package readiness waits for a file that may still be written by a recorder.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"incident-report-go/internal/logger"
)

// ErrNotStable is wrapped by the timeout error returned from WaitForStable.
var ErrNotStable = errors.New("file not stable")

type Options struct {
	Timeout      time.Duration
	PollInterval time.Duration
	Log          *logger.Logger

	// stat is swapped out in tests.
	stat func(name string) (os.FileInfo, error)
}

// WaitForStable polls path until its size is positive and unchanged between two
// consecutive polls. Stat errors are treated as "not there yet".
func WaitForStable(ctx context.Context, path string, opts Options) error {
	stat := opts.stat
	if stat == nil {
		stat = os.Stat
	}
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("readiness")

	deadline := time.Now().Add(opts.Timeout)
	lastSize := int64(-1)
	for time.Now().Before(deadline) {
		info, err := stat(path)
		switch {
		case err != nil:
			log.WithError(err).Debug("stat failed, retrying")
		case info.Size() > 0 && info.Size() == lastSize:
			log.WithField("size", info.Size()).Debug("file stable")
			return nil
		default:
			lastSize = info.Size()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(opts.PollInterval):
		}
	}
	return fmt.Errorf("%w: file %s not stable after %s", ErrNotStable, path, opts.Timeout)
}
