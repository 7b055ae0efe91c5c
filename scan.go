package addrscan

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// PageFetcher is the keyset page source Scan drives. *KeysetPaginator
// implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, cursor *string) ([]AddressRecord, *string, error)
}

// PageObserver receives the size and latency of every page query, including
// the final empty one.
type PageObserver interface {
	ObservePage(rows int, elapsed time.Duration)
}

// ScanStats summarises a scan. Queries counts every FetchPage call, Pages
// only the non-empty ones.
type ScanStats struct {
	Queries    int
	Pages      int
	Rows       int
	Elapsed    time.Duration
	LastCursor *string
}

type scanOptions struct {
	handler    func([]AddressRecord) error
	observer   PageObserver
	checkpoint CheckpointStore
	log        logrus.FieldLogger
}

type ScanOption func(*scanOptions)

// WithPageHandler is called with every non-empty page. A handler error
// aborts the scan.
func WithPageHandler(fn func([]AddressRecord) error) ScanOption {
	return func(o *scanOptions) {
		o.handler = fn
	}
}

func WithPageObserver(observer PageObserver) ScanOption {
	return func(o *scanOptions) {
		o.observer = observer
	}
}

// WithCheckpoint saves the cursor after every page and clears it once the
// scan completes.
func WithCheckpoint(store CheckpointStore) ScanOption {
	return func(o *scanOptions) {
		o.checkpoint = store
	}
}

func WithScanLogger(log logrus.FieldLogger) ScanOption {
	return func(o *scanOptions) {
		o.log = log
	}
}

func newScanOptions(opts []ScanOption) *scanOptions {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	o := &scanOptions{log: discard}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Scan calls FetchPage from start until it returns a nil next cursor. Each
// row of the filter is delivered exactly once, provided no writer inserts or
// deletes ids inside the scanned range while the scan runs. The first error
// aborts the scan; the returned stats cover the pages completed before it.
func Scan(ctx context.Context, fetcher PageFetcher, start *string, opts ...ScanOption) (ScanStats, error) {
	o := newScanOptions(opts)

	stats, last, err := runScan(ctx, o, start,
		func(ctx context.Context, cursor *string) ([]AddressRecord, *string, bool, error) {
			rows, next, err := fetcher.FetchPage(ctx, cursor)
			return rows, next, next == nil, err
		},
		func(ctx context.Context, next *string) error {
			if o.checkpoint == nil {
				return nil
			}

			return o.checkpoint.Save(ctx, next)
		},
	)
	stats.LastCursor = last
	if err != nil {
		return stats, err
	}

	if o.checkpoint != nil {
		if err = o.checkpoint.Save(ctx, nil); err != nil {
			return stats, fmt.Errorf("clear checkpoint: %w", err)
		}
	}

	return stats, nil
}

// ScanOffset walks p from the first page until an empty page, with the same
// handler and observer semantics as Scan. Checkpoints are not supported.
func ScanOffset(ctx context.Context, p *OffsetPaginator, opts ...ScanOption) (ScanStats, error) {
	o := newScanOptions(opts)

	stats, _, err := runScan(ctx, o, (*OffsetCursor)(nil),
		func(ctx context.Context, cursor *OffsetCursor) ([]AddressRecord, *OffsetCursor, bool, error) {
			page, err := p.FetchPage(ctx, cursor)
			return page.Items, page.Next, page.Next == nil, err
		},
		nil,
	)

	return stats, err
}

// runScan drives fetch until it reports done, returning the last cursor that
// was advanced to (start if none).
func runScan[C any](
	ctx context.Context,
	o *scanOptions,
	cursor C,
	fetch func(context.Context, C) ([]AddressRecord, C, bool, error),
	advance func(context.Context, C) error,
) (ScanStats, C, error) {
	var stats ScanStats
	began := time.Now()

	for {
		pageStarted := time.Now()
		rows, next, done, err := fetch(ctx, cursor)
		elapsed := time.Since(pageStarted)
		stats.Queries++

		if err != nil {
			stats.Elapsed = time.Since(began)
			return stats, cursor, fmt.Errorf("scan query %d: %w", stats.Queries, err)
		}

		if o.observer != nil {
			o.observer.ObservePage(len(rows), elapsed)
		}
		o.log.WithFields(logrus.Fields{
			"query":   stats.Queries,
			"rows":    len(rows),
			"elapsed": elapsed,
		}).Debug("page fetched")

		if len(rows) > 0 {
			stats.Pages++
			stats.Rows += len(rows)

			if o.handler != nil {
				if err = o.handler(rows); err != nil {
					stats.Elapsed = time.Since(began)
					return stats, cursor, fmt.Errorf("handle page %d: %w", stats.Pages, err)
				}
			}
		}

		if done {
			break
		}

		cursor = next
		if advance != nil {
			if err = advance(ctx, next); err != nil {
				stats.Elapsed = time.Since(began)
				return stats, cursor, fmt.Errorf("save checkpoint: %w", err)
			}
		}
	}

	stats.Elapsed = time.Since(began)

	return stats, cursor, nil
}
