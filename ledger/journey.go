package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/rivulet/traceledger/repository/models"
)

// AddCheckpoint appends a journey entry for a registered product and returns
// the timestamp assigned to it. Timestamps within one product's journey are
// non-decreasing: a wall-clock regression is clamped to last+1 rather than
// rejected. Appends for the same product are serialized; appends for
// different products do not contend.
func (l *Ledger) AddCheckpoint(productID uint64, step, location, status, metadata, recordedBy string) (int64, *LedgerError) {
	if strings.TrimSpace(step) == "" {
		return 0, newValidationError("step is required")
	}
	if strings.TrimSpace(location) == "" {
		return 0, newValidationError("location is required")
	}
	if strings.TrimSpace(status) == "" {
		return 0, newValidationError("status is required")
	}

	checkpoint, lerr := l.appendCheckpointLocked(productID, step, location, status, metadata, recordedBy)
	if lerr != nil {
		return 0, lerr
	}

	l.logger.Info("Recorded checkpoint", "product_id", productID, "seq", checkpoint.Seq, "step", step)
	l.mirrorCheckpoint(checkpoint)
	return checkpoint.Timestamp, nil
}

// appendCheckpointLocked assigns the next sequence number and timestamp under
// the product's append lock. The lock is released before mirroring.
func (l *Ledger) appendCheckpointLocked(productID uint64, step, location, status, metadata, recordedBy string) (*models.Checkpoint, *LedgerError) {
	mu := l.productLock(productID)
	mu.Lock()
	defer mu.Unlock()

	var checkpoint models.Checkpoint
	err := l.db.Update(func(txn *badger.Txn) error {
		ok, err := exists(txn, productID)
		if err != nil {
			return err
		}
		if !ok {
			return badger.ErrKeyNotFound
		}

		var meta appendMeta
		if err := getJSON(txn, journeyMetaKey(productID), &meta); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		ts := l.now().Unix()
		if ts < meta.LastTimestamp {
			ts = meta.LastTimestamp + 1
		}

		checkpoint = models.Checkpoint{
			ProductID:  productID,
			Seq:        meta.Count,
			Step:       step,
			Location:   location,
			Status:     status,
			Metadata:   metadata,
			RecordedBy: recordedBy,
			Timestamp:  ts,
		}
		if err := setJSON(txn, journeyKey(productID, meta.Count), &checkpoint); err != nil {
			return err
		}
		meta.Count++
		meta.LastTimestamp = ts
		return setJSON(txn, journeyMetaKey(productID), &meta)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, newNotFoundError("Product", fmt.Sprintf("product with id %d does not exist", productID))
		}
		return nil, newWriteFailure(err)
	}
	return &checkpoint, nil
}

// GetJourney returns a product's checkpoints oldest first. A registered
// product with no checkpoints yields an empty slice, not an error.
func (l *Ledger) GetJourney(productID uint64) ([]models.Checkpoint, *LedgerError) {
	journey := []models.Checkpoint{}
	err := l.db.View(func(txn *badger.Txn) error {
		ok, err := exists(txn, productID)
		if err != nil {
			return err
		}
		if !ok {
			return badger.ErrKeyNotFound
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = journeyPrefix(productID)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var checkpoint models.Checkpoint
			err := it.Item().Value(func(val []byte) error {
				return unmarshalValue(val, &checkpoint)
			})
			if err != nil {
				return err
			}
			journey = append(journey, checkpoint)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, newNotFoundError("Product", fmt.Sprintf("product with id %d does not exist", productID))
		}
		return nil, newReadFailure(err)
	}
	return journey, nil
}

// JourneyStats summarizes journey progress. Status matching follows the
// legacy dashboards: it is a substring heuristic over free-form status labels
// ("complet", "progress"), documented as non-exhaustive rather than a closed
// vocabulary.
type JourneyStats struct {
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	InProgress int     `json:"inProgress"`
	Pending    int     `json:"pending"`
	Progress   float64 `json:"progress"`
}

// StatsForJourney computes aggregate progress over a checkpoint sequence.
func StatsForJourney(journey []models.Checkpoint) JourneyStats {
	stats := JourneyStats{Total: len(journey)}
	for _, checkpoint := range journey {
		status := strings.ToLower(checkpoint.Status)
		switch {
		case strings.Contains(status, "complet"):
			stats.Completed++
		case strings.Contains(status, "progress"):
			stats.InProgress++
		default:
			stats.Pending++
		}
	}
	if stats.Total > 0 {
		stats.Progress = float64(stats.Completed) / float64(stats.Total)
	}
	return stats
}
