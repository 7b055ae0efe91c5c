package addrscan

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceFetcher serves sorted ids the way KeysetPaginator serves rows.
type sliceFetcher struct {
	ids      []string
	pageSize int
	failAt   int
	calls    int
}

func (f *sliceFetcher) FetchPage(_ context.Context, cursor *string) ([]AddressRecord, *string, error) {
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		return nil, nil, errors.New("database is locked")
	}

	start := 0
	if cursor != nil {
		start = sort.SearchStrings(f.ids, *cursor)
		if start < len(f.ids) && f.ids[start] == *cursor {
			start++
		}
	}
	end := min(start+f.pageSize, len(f.ids))

	rows := lo.Map(f.ids[start:end], func(id string, _ int) AddressRecord {
		return newRecord(id, WalletTypeAPI)
	})
	if len(rows) == 0 {
		return rows, nil, nil
	}

	return rows, lo.ToPtr(rows[len(rows)-1].ID), nil
}

type countingObserver struct {
	pages []int
}

func (o *countingObserver) ObservePage(rows int, _ time.Duration) {
	o.pages = append(o.pages, rows)
}

type recordingCheckpoint struct {
	MemoryCheckpoint
	saved []*string
}

func (r *recordingCheckpoint) Save(ctx context.Context, cursor *string) error {
	r.saved = append(r.saved, copyCursor(cursor))
	return r.MemoryCheckpoint.Save(ctx, cursor)
}

func TestScan(t *testing.T) {
	fetcher := &sliceFetcher{ids: []string{"w_0", "w_1", "w_2", "w_3", "w_4"}, pageSize: 2}
	observer := &countingObserver{}
	checkpoint := &recordingCheckpoint{}

	var seen []string
	stats, err := Scan(context.Background(), fetcher, nil,
		WithPageHandler(func(rows []AddressRecord) error {
			seen = append(seen, recordIDs(rows)...)
			return nil
		}),
		WithPageObserver(observer),
		WithCheckpoint(checkpoint),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"w_0", "w_1", "w_2", "w_3", "w_4"}, seen)
	assert.Equal(t, 4, stats.Queries)
	assert.Equal(t, 3, stats.Pages)
	assert.Equal(t, 5, stats.Rows)
	assert.Equal(t, lo.ToPtr("w_4"), stats.LastCursor)
	assert.Equal(t, []int{2, 2, 1, 0}, observer.pages)

	assert.Equal(t, []*string{lo.ToPtr("w_1"), lo.ToPtr("w_3"), lo.ToPtr("w_4"), nil}, checkpoint.saved)
	last, err := checkpoint.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, last, "a completed scan clears its checkpoint")
}

func TestScan_Empty(t *testing.T) {
	stats, err := Scan(context.Background(), &sliceFetcher{pageSize: 3}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Queries)
	assert.Zero(t, stats.Pages)
	assert.Zero(t, stats.Rows)
	assert.Nil(t, stats.LastCursor)
}

func TestScan_Resume(t *testing.T) {
	fetcher := &sliceFetcher{ids: []string{"w_0", "w_1", "w_2", "w_3", "w_4"}, pageSize: 2}

	var seen []string
	stats, err := Scan(context.Background(), fetcher, lo.ToPtr("w_1"),
		WithPageHandler(func(rows []AddressRecord) error {
			seen = append(seen, recordIDs(rows)...)
			return nil
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"w_2", "w_3", "w_4"}, seen)
	assert.Equal(t, 3, stats.Queries)
}

func TestScan_FetchError(t *testing.T) {
	fetcher := &sliceFetcher{ids: []string{"w_0", "w_1", "w_2", "w_3", "w_4"}, pageSize: 2, failAt: 2}
	checkpoint := NewMemoryCheckpoint()

	stats, err := Scan(context.Background(), fetcher, nil, WithCheckpoint(checkpoint))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, lo.ToPtr("w_1"), stats.LastCursor)

	// The checkpoint keeps the last completed page so the scan can resume.
	saved, err := checkpoint.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, lo.ToPtr("w_1"), saved)
}

func TestScan_HandlerError(t *testing.T) {
	fetcher := &sliceFetcher{ids: []string{"w_0", "w_1", "w_2"}, pageSize: 2}
	boom := errors.New("boom")

	stats, err := Scan(context.Background(), fetcher, nil,
		WithPageHandler(func([]AddressRecord) error { return boom }),
	)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, stats.Queries)
	assert.Equal(t, 1, fetcher.calls)
}

func TestScan_KeysetPaginator(t *testing.T) {
	db := newSQLiteDB(t)
	ids := seqIDs("w", 8, 25)
	seedIDs(t, db, WalletTypeAPI, ids...)
	seedIDs(t, db, WalletTypeNormal, seqIDs("x", 8, 5)...)

	p, err := NewKeysetPaginator(db, WalletTypeAPI, 10)
	require.NoError(t, err)

	var seen []string
	stats, err := Scan(context.Background(), p, nil, WithPageHandler(func(rows []AddressRecord) error {
		seen = append(seen, recordIDs(rows)...)
		return nil
	}))
	require.NoError(t, err)

	assert.Equal(t, ids, seen)
	assert.Equal(t, 25, stats.Rows)
	assert.Equal(t, 4, stats.Queries)
}

func TestScanOffset(t *testing.T) {
	db := newSQLiteDB(t)
	ids := seqIDs("w", 8, 7)
	seedIDs(t, db, WalletTypeAPI, ids...)

	p, err := NewOffsetPaginator(db, WalletTypeAPI, 3)
	require.NoError(t, err)

	observer := &countingObserver{}
	var seen []string
	stats, err := ScanOffset(context.Background(), p,
		WithPageObserver(observer),
		WithPageHandler(func(rows []AddressRecord) error {
			seen = append(seen, recordIDs(rows)...)
			return nil
		}),
	)
	require.NoError(t, err)

	assert.Equal(t, ids, seen)
	assert.Equal(t, 7, stats.Rows)
	assert.Equal(t, []int{3, 3, 1, 0}, observer.pages)
}
