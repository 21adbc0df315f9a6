package isolation

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/coral-mesh/ifprobe/internal/catalog"
	"github.com/coral-mesh/ifprobe/internal/constants"
	"github.com/coral-mesh/ifprobe/internal/record"
)

// ClassEnumerator enumerates one class out of process.
type ClassEnumerator interface {
	Enumerate(ctx context.Context, cls catalog.Class) (*record.Result, error)
}

// ScanResult is the outcome for one class of a scan.
type ScanResult struct {
	Class catalog.Class

	// Result is nil when the helper could not be launched.
	Result *record.Result

	// Err is a launch failure for this class.
	Err error
}

// Scanner enumerates many classes, each in its own helper process.
type Scanner struct {
	enumerator  ClassEnumerator
	concurrency int
	logger      zerolog.Logger
	onResult    func(ScanResult)
}

// NewScanner creates a scanner running at most concurrency helpers at once.
// onResult, if set, is called from the worker goroutines as each class
// completes.
func NewScanner(enumerator ClassEnumerator, concurrency int, logger zerolog.Logger, onResult func(ScanResult)) *Scanner {
	if concurrency <= 0 {
		concurrency = constants.DefaultScanConcurrency
	}
	return &Scanner{
		enumerator:  enumerator,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "scanner").Logger(),
		onResult:    onResult,
	}
}

// Scan enumerates classes and returns their results in input order. A class
// that fails to launch is recorded in its ScanResult and does not stop the
// scan; only ctx cancellation does.
func (s *Scanner) Scan(ctx context.Context, classes []catalog.Class) ([]ScanResult, error) {
	results := make([]ScanResult, len(classes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, cls := range classes {
		i, cls := i, cls
		results[i].Class = cls
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := s.enumerator.Enumerate(gctx, cls)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			if err != nil {
				s.logger.Warn().Err(err).Stringer("class", cls).Msg("Failed to enumerate class")
			}

			results[i] = ScanResult{Class: cls, Result: res, Err: err}
			if s.onResult != nil {
				s.onResult(results[i])
			}
			return nil
		})
	}

	err := g.Wait()
	s.logger.Debug().Int("classes", len(classes)).Err(err).Msg("Scan finished")
	return results, err
}
