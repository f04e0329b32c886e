// Package download waits for browser downloads to land in a directory.
package download

import (
	"context"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vivado-fetch/api/schemas"
	"github.com/xkilldash9x/vivado-fetch/internal/config"
)

// sizeTolerance absorbs the rounding of the listing's advertised sizes.
const sizeTolerance = 0.01

// Expectation describes the files a download should produce.
type Expectation struct {
	// Names are the final file names. Empty accepts any new file.
	Names []string
	// ExpectedSize is the advertised size in bytes, 0 if unknown.
	ExpectedSize int64
	// Baseline lists entries to ignore because they predate the download.
	Baseline Baseline
}

func (e Expectation) matches(name string, size int64) bool {
	if len(e.Names) > 0 {
		found := false
		for _, n := range e.Names {
			if n == name || isUniquified(name, n) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if e.ExpectedSize > 0 {
		return float64(size) >= float64(e.ExpectedSize)*(1-sizeTolerance)
	}
	return true
}

// isUniquified reports whether name is want renamed by the browser to avoid
// an existing file: "installer (1).bin" or "Xilinx (2).tar.gz".
func isUniquified(name, want string) bool {
	for i := 0; i <= len(want); i++ {
		if i < len(want) && want[i] != '.' {
			continue
		}
		stem, ext := want[:i], want[i:]
		if stem == "" {
			continue
		}
		rest, ok := strings.CutPrefix(name, stem+" (")
		if !ok {
			continue
		}
		counter, ok := strings.CutSuffix(rest, ")"+ext)
		if ok && counter != "" && strings.Trim(counter, "0123456789") == "" {
			return true
		}
	}
	return false
}

// Progress receives the number of bytes on disk after every poll.
type Progress interface {
	Update(current, total int64)
	Done()
}

// Waiter polls a directory until a download completes or time runs out.
type Waiter struct {
	pollInterval time.Duration
	suffixes     []string
	clock        Clock
	progress     Progress
	logger       *zap.Logger
}

// Option customizes a Waiter.
type Option func(*Waiter)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(w *Waiter) { w.clock = c }
}

// WithProgress reports progress to p.
func WithProgress(p Progress) Option {
	return func(w *Waiter) { w.progress = p }
}

// NewWaiter creates a Waiter from the download settings.
func NewWaiter(cfg config.DownloadConfig, logger *zap.Logger, opts ...Option) *Waiter {
	w := &Waiter{
		pollInterval: cfg.PollInterval,
		suffixes:     cfg.PartialSuffixes,
		clock:        realClock{},
		logger:       logger.Named("download"),
	}
	if w.pollInterval <= 0 {
		w.pollInterval = time.Second
	}
	if len(w.suffixes) == 0 {
		w.suffixes = []string{".crdownload"}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Wait polls dir until the expected files exist and no partial download
// remains, or until timeout elapses. A download that is already complete
// returns on the first poll. On timeout, or when ctx is canceled, the outcome
// is TIMEOUT and lists the partial files left behind. Nothing is deleted.
func (w *Waiter) Wait(ctx context.Context, dir string, timeout time.Duration, exp Expectation) schemas.DownloadOutcome {
	deadline := w.clock.Now().Add(timeout)
	if w.progress != nil {
		defer w.progress.Done()
	}

	w.logger.Info("Waiting for download.",
		zap.String("dir", dir),
		zap.Strings("expect", exp.Names),
		zap.Duration("timeout", timeout),
	)

	var last scanResult
	for {
		res, err := w.scan(dir, exp)
		if err != nil {
			w.logger.Warn("Could not inspect download directory.", zap.Error(err))
		} else {
			last = res
		}

		if w.progress != nil {
			w.progress.Update(last.partialBytes+last.finalBytes, exp.ExpectedSize)
		}

		if err == nil && len(res.partial) == 0 && len(res.complete) > 0 {
			w.logger.Info("Download complete.",
				zap.Strings("files", res.complete),
				zap.String("size", humanize.Bytes(uint64(res.finalBytes))),
			)
			return schemas.Completed(res.complete)
		}

		remaining := deadline.Sub(w.clock.Now())
		if remaining <= 0 {
			w.logger.Warn("Timed out waiting for download.", zap.Strings("partial", last.partial))
			return schemas.Failed(schemas.ReasonTimeout, last.partial)
		}

		sleep := w.pollInterval
		if remaining < sleep {
			sleep = remaining
		}
		if err := w.clock.Sleep(ctx, sleep); err != nil {
			w.logger.Warn("Download wait interrupted.", zap.Error(err), zap.Strings("partial", last.partial))
			return schemas.Failed(schemas.ReasonTimeout, last.partial)
		}
	}
}
