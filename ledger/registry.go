package ledger

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/rivulet/traceledger/repository/models"
)

// RegisterInput carries the fields required to register a product. All string
// fields are required; QRHash must be a 256-bit hex digest.
type RegisterInput struct {
	Name              string `json:"name"`
	Brand             string `json:"brand"`
	SKU               string `json:"sku"`
	Batch             string `json:"batch"`
	OriginFarm        string `json:"originFarm"`
	OriginCountry     string `json:"originCountry"`
	ManufacturingDate int64  `json:"manufacturingDate"`
	QRHash            string `json:"qrHash"`
}

var errDuplicateHash = errors.New("qr hash already indexed")

// Register validates the input, assigns the next sequential product id and
// durably persists the product record together with its hash-index entry in
// one transaction. Nothing is visible if any step fails.
func (l *Ledger) Register(in RegisterInput) (uint64, *LedgerError) {
	if lerr := validateRegisterInput(&in); lerr != nil {
		return 0, lerr
	}
	hash := normalizeHash(in.QRHash)

	product, lerr := l.registerLocked(in, hash)
	if lerr != nil {
		return 0, lerr
	}

	l.logger.Info("Registered product", "id", product.ID, "sku", product.SKU, "qr_hash", hash)
	l.mirrorProduct(product)
	return product.ID, nil
}

// registerLocked commits the product under the global registration lock. The
// lock covers id assignment and the hash-uniqueness check only; mirroring
// happens after it is released.
func (l *Ledger) registerLocked(in RegisterInput, hash string) (*models.Product, *LedgerError) {
	l.registerMu.Lock()
	defer l.registerMu.Unlock()

	var product models.Product
	err := l.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(hashIndexKey(hash))
		if err == nil {
			return errDuplicateHash
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		count, err := getUint64(txn, keyProductCount)
		if err != nil {
			return err
		}
		id := count + 1

		product = models.Product{
			ID:                id,
			Name:              in.Name,
			Brand:             in.Brand,
			SKU:               in.SKU,
			Batch:             in.Batch,
			OriginFarm:        in.OriginFarm,
			OriginCountry:     in.OriginCountry,
			ManufacturingDate: in.ManufacturingDate,
			QRHash:            hash,
		}
		if err := setJSON(txn, productKey(id), &product); err != nil {
			return err
		}
		if err := txn.Set(hashIndexKey(hash), uint64ToBytes(id)); err != nil {
			return err
		}
		return txn.Set(keyProductCount, uint64ToBytes(id))
	})
	if err != nil {
		if errors.Is(err, errDuplicateHash) {
			return nil, newDuplicateHashError(hash)
		}
		return nil, newWriteFailure(err)
	}
	return &product, nil
}

// GetDetails returns the identity record of a product. IsAuthentic is derived
// on every read: it holds when the hash index still resolves the product's
// own hash back to its id.
func (l *Ledger) GetDetails(productID uint64) (*models.Product, *LedgerError) {
	var product models.Product
	err := l.db.View(func(txn *badger.Txn) error {
		if err := getJSON(txn, productKey(productID), &product); err != nil {
			return err
		}
		indexed, err := getUint64(txn, hashIndexKey(product.QRHash))
		if err != nil {
			return err
		}
		product.IsAuthentic = indexed == product.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, newNotFoundError("Product", fmt.Sprintf("product with id %d does not exist", productID))
		}
		return nil, newReadFailure(err)
	}
	return &product, nil
}

// LookupByHash resolves a QR hash to the product id it was registered under.
func (l *Ledger) LookupByHash(qrHash string) (uint64, *LedgerError) {
	hash := normalizeHash(qrHash)
	var id uint64
	err := l.db.View(func(txn *badger.Txn) error {
		indexed, err := getUint64(txn, hashIndexKey(hash))
		if err != nil {
			return err
		}
		if indexed == 0 {
			return badger.ErrKeyNotFound
		}
		id = indexed
		return nil
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, newNotFoundError("Product", fmt.Sprintf("no product is registered under hash %s", hash))
		}
		return 0, newReadFailure(err)
	}
	return id, nil
}

// Count returns the highest assigned product id; the next registration gets
// Count()+1.
func (l *Ledger) Count() (uint64, *LedgerError) {
	var count uint64
	err := l.db.View(func(txn *badger.Txn) error {
		n, err := getUint64(txn, keyProductCount)
		count = n
		return err
	})
	if err != nil {
		return 0, newReadFailure(err)
	}
	return count, nil
}

// exists reports whether a product id has been assigned.
func exists(txn *badger.Txn, productID uint64) (bool, error) {
	_, err := txn.Get(productKey(productID))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func validateRegisterInput(in *RegisterInput) *LedgerError {
	required := map[string]string{
		"name":          in.Name,
		"brand":         in.Brand,
		"sku":           in.SKU,
		"batch":         in.Batch,
		"originFarm":    in.OriginFarm,
		"originCountry": in.OriginCountry,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return newValidationError(fmt.Sprintf("%s is required", field))
		}
	}
	if in.ManufacturingDate <= 0 {
		return newValidationError("manufacturingDate must be a positive epoch timestamp")
	}
	if !isWellFormedHash(in.QRHash) {
		return newValidationError("qrHash must be a 64 character hex digest")
	}
	return nil
}

// normalizeHash lowercases a hex digest so lookups are case insensitive.
func normalizeHash(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}

func isWellFormedHash(hash string) bool {
	hash = normalizeHash(hash)
	if len(hash) != 64 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}
