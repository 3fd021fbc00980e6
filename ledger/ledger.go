package ledger

import (
	"sync"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/dgraph-io/badger/v4"

	"github.com/rivulet/traceledger/repository/models"
)

// Mirror receives copies of durably committed ledger entries, typically to
// feed a relational store for reporting. Mirroring is best effort: failures
// are logged by the ledger and never propagated to the writer, and the badger
// log remains the authoritative record.
type Mirror interface {
	MirrorProduct(p *models.Product) error
	MirrorCheckpoint(c *models.Checkpoint) error
	MirrorCertification(c *models.Certification) error
}

// Ledger is the append-only product-traceability ledger. It owns product
// identity records, the hash reverse index, per-product checkpoint journals
// and certification records, all persisted in a single badger database.
//
// Writes return only after the badger transaction has committed. Appends to
// the same product are serialized through a per-product mutex; appends to
// different products proceed in parallel. Registration holds a short global
// lock for id assignment and hash-index uniqueness.
type Ledger struct {
	db     *badger.DB
	logger cmtlog.Logger
	mirror Mirror

	registerMu sync.Mutex
	productMus sync.Map // uint64 -> *sync.Mutex

	now func() time.Time
}

// Config contains options for opening a Ledger.
type Config struct {
	// Dir is the badger data directory. Empty means in-memory, which is only
	// useful for tests.
	Dir string
	// NoSync disables fsync on commit. With NoSync off an acknowledged write
	// has reached stable storage; turning it on trades that guarantee for
	// throughput.
	NoSync bool
	// Mirror, when non-nil, receives committed entries.
	Mirror Mirror
}

// Open opens (or creates) the ledger database at cfg.Dir. On-disk databases
// sync every commit unless cfg.NoSync is set.
func Open(cfg Config, logger cmtlog.Logger) (*Ledger, error) {
	opts := badger.DefaultOptions(cfg.Dir)
	opts = opts.WithLogger(nil)
	if cfg.Dir == "" {
		opts = opts.WithInMemory(true)
	} else {
		opts = opts.WithSyncWrites(!cfg.NoSync)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Ledger{
		db:     db,
		logger: logger,
		mirror: cfg.Mirror,
		now:    time.Now,
	}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// productLock returns the append lock for a product, creating it on first use.
func (l *Ledger) productLock(id uint64) *sync.Mutex {
	mu, _ := l.productMus.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// mirrorProduct forwards a committed product to the mirror, if configured.
func (l *Ledger) mirrorProduct(p *models.Product) {
	if l.mirror == nil {
		return
	}
	if err := l.mirror.MirrorProduct(p); err != nil {
		l.logger.Error("Failed to mirror product", "id", p.ID, "err", err)
	}
}

func (l *Ledger) mirrorCheckpoint(c *models.Checkpoint) {
	if l.mirror == nil {
		return
	}
	if err := l.mirror.MirrorCheckpoint(c); err != nil {
		l.logger.Error("Failed to mirror checkpoint", "product_id", c.ProductID, "seq", c.Seq, "err", err)
	}
}

func (l *Ledger) mirrorCertification(c *models.Certification) {
	if l.mirror == nil {
		return
	}
	if err := l.mirror.MirrorCertification(c); err != nil {
		l.logger.Error("Failed to mirror certification", "product_id", c.ProductID, "seq", c.Seq, "err", err)
	}
}
