package addrscan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	WalletTypeAPI        = "api"
	WalletTypeWithdrawal = "withdrawal"
	WalletTypeNormal     = "normal"

	// maxRowsPerInsert keeps a single INSERT under SQLite's bound parameter
	// limit (8 columns per row).
	maxRowsPerInsert = 1000
)

var (
	DefaultWalletTypes = []string{WalletTypeAPI, WalletTypeWithdrawal, WalletTypeNormal}
	DefaultChainCodes  = []string{"eth", "tron", "btc", "sol", "bnb"}

	ErrInvalidBatchSize = errors.New("batch size must be positive")
)

// Generator produces deterministic synthetic address records. Record i of a
// generator always has the same id, wallet and address.
type Generator struct {
	// IDPrefix and IDWidth shape ids as "<prefix>_<i zero-padded to width>".
	// Without padding string order of ids diverges from numeric order of i.
	IDPrefix string
	IDWidth  int
	// AddressesPerWallet consecutive records share a wallet id and type.
	AddressesPerWallet int
	WalletTypes        []string
	ChainCodes         []string
	Balance            string
	Now                func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{
		IDPrefix:           "w",
		IDWidth:            8,
		AddressesPerWallet: 20,
		WalletTypes:        DefaultWalletTypes,
		ChainCodes:         DefaultChainCodes,
		Balance:            "0",
		Now:                time.Now,
	}
}

// ID returns the id of record i.
func (g *Generator) ID(i int) string {
	return fmt.Sprintf("%s_%0*d", g.IDPrefix, g.IDWidth, i)
}

// Record returns record i.
func (g *Generator) Record(i int) AddressRecord {
	perWallet := max(g.AddressesPerWallet, 1)
	wallet := i / perWallet
	id := g.ID(i)

	return AddressRecord{
		ID:           id,
		WalletID:     uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/wallet/%d", g.IDPrefix, wallet))).String(),
		WalletType:   pick(g.WalletTypes, wallet, WalletTypeAPI),
		ChainCode:    pick(g.ChainCodes, i, "eth"),
		AddressIndex: int64(i % perWallet),
		Address:      "0x" + strings.ReplaceAll(uuid.NewSHA1(uuid.NameSpaceURL, []byte(id)).String(), "-", ""),
		Balance:      lo.ToPtr(g.Balance),
		UpdatedAt:    lo.ToPtr(g.now().UTC().Format(time.RFC3339)),
	}
}

// Batch returns records [from, from+n).
func (g *Generator) Batch(from, n int) []AddressRecord {
	return lo.Times(n, func(i int) AddressRecord {
		return g.Record(from + i)
	})
}

func (g *Generator) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}

	return g.Now()
}

func pick(values []string, i int, fallback string) string {
	if len(values) == 0 {
		return fallback
	}

	return values[i%len(values)]
}

// BatchObserver receives the size and latency of every committed batch.
type BatchObserver interface {
	ObserveBatch(rows int, elapsed time.Duration)
}

// LoadStats summarises a Load call.
type LoadStats struct {
	Batches int
	Rows    int
	Elapsed time.Duration
}

// BulkLoader inserts generated records in fixed-size batches, one commit per
// batch. Id uniqueness comes from the generator.
type BulkLoader struct {
	db        *gorm.DB
	gen       *Generator
	batchSize int
	observer  BatchObserver
	log       logrus.FieldLogger
}

type LoaderOption func(*BulkLoader)

func WithBatchObserver(observer BatchObserver) LoaderOption {
	return func(l *BulkLoader) {
		l.observer = observer
	}
}

func WithLoaderLogger(log logrus.FieldLogger) LoaderOption {
	return func(l *BulkLoader) {
		l.log = log
	}
}

func NewBulkLoader(db *gorm.DB, gen *Generator, batchSize int, opts ...LoaderOption) (*BulkLoader, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, batchSize)
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	l := &BulkLoader{
		db:        db,
		gen:       lo.Ternary(gen != nil, gen, NewGenerator()),
		batchSize: batchSize,
		log:       discard,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Load inserts records [0, total). A failed batch is rolled back and aborts
// the load; earlier batches stay committed.
func (l *BulkLoader) Load(ctx context.Context, total int) (LoadStats, error) {
	var stats LoadStats
	began := time.Now()

	for from := 0; from < total; from += l.batchSize {
		n := min(l.batchSize, total-from)
		batch := l.gen.Batch(from, n)

		batchStarted := time.Now()
		if err := l.insertBatch(ctx, batch); err != nil {
			stats.Elapsed = time.Since(began)
			return stats, fmt.Errorf("insert batch at %s: %w", l.gen.ID(from), err)
		}
		elapsed := time.Since(batchStarted)

		stats.Batches++
		stats.Rows += n
		if l.observer != nil {
			l.observer.ObserveBatch(n, elapsed)
		}
		l.log.WithFields(logrus.Fields{
			"batch":   stats.Batches,
			"rows":    stats.Rows,
			"elapsed": elapsed,
		}).Debug("batch committed")
	}

	stats.Elapsed = time.Since(began)

	return stats, nil
}

func (l *BulkLoader) insertBatch(ctx context.Context, batch []AddressRecord) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, chunk := range lo.Chunk(batch, maxRowsPerInsert) {
			if err := tx.Create(&chunk).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
