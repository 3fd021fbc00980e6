package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/rivulet/traceledger/repository/models"
)

// CertificationInput carries the fields required to attach a certification.
type CertificationInput struct {
	CertType     string `json:"certType"`
	CertNumber   string `json:"certNumber"`
	Issuer       string `json:"issuer"`
	IssueDate    int64  `json:"issueDate"`
	ExpiryDate   int64  `json:"expiryDate"`
	DocumentHash string `json:"documentHash"`
}

// AddCertification appends a certification record for a registered product.
// Validity is never stored; it is derived at read time from the expiry date.
func (l *Ledger) AddCertification(productID uint64, in CertificationInput) *LedgerError {
	if strings.TrimSpace(in.CertType) == "" {
		return newValidationError("certType is required")
	}
	if strings.TrimSpace(in.CertNumber) == "" {
		return newValidationError("certNumber is required")
	}
	if strings.TrimSpace(in.Issuer) == "" {
		return newValidationError("issuer is required")
	}
	if in.IssueDate <= 0 {
		return newValidationError("issueDate must be a positive epoch timestamp")
	}
	if in.ExpiryDate <= in.IssueDate {
		return newValidationError("expiryDate must be after issueDate")
	}

	cert, lerr := l.appendCertificationLocked(productID, in)
	if lerr != nil {
		return lerr
	}

	l.logger.Info("Recorded certification", "product_id", productID, "type", in.CertType, "number", in.CertNumber)
	l.mirrorCertification(cert)
	return nil
}

// appendCertificationLocked commits the certification under the product's
// append lock, which shares the lock used for checkpoint appends.
func (l *Ledger) appendCertificationLocked(productID uint64, in CertificationInput) (*models.Certification, *LedgerError) {
	mu := l.productLock(productID)
	mu.Lock()
	defer mu.Unlock()

	var cert models.Certification
	err := l.db.Update(func(txn *badger.Txn) error {
		ok, err := exists(txn, productID)
		if err != nil {
			return err
		}
		if !ok {
			return badger.ErrKeyNotFound
		}

		count, err := getUint64(txn, certMetaKey(productID))
		if err != nil {
			return err
		}

		cert = models.Certification{
			ProductID:    productID,
			Seq:          count,
			CertType:     in.CertType,
			CertNumber:   in.CertNumber,
			Issuer:       in.Issuer,
			IssueDate:    in.IssueDate,
			ExpiryDate:   in.ExpiryDate,
			DocumentHash: in.DocumentHash,
		}
		if err := setJSON(txn, certKey(productID, count), &cert); err != nil {
			return err
		}
		return txn.Set(certMetaKey(productID), uint64ToBytes(count+1))
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, newNotFoundError("Product", fmt.Sprintf("product with id %d does not exist", productID))
		}
		return nil, newWriteFailure(err)
	}
	return &cert, nil
}

// GetCertifications returns a product's certifications in append order, each
// annotated with its validity at the time of the call.
func (l *Ledger) GetCertifications(productID uint64) ([]models.Certification, *LedgerError) {
	now := l.now()
	certs := []models.Certification{}
	err := l.db.View(func(txn *badger.Txn) error {
		ok, err := exists(txn, productID)
		if err != nil {
			return err
		}
		if !ok {
			return badger.ErrKeyNotFound
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = certPrefix(productID)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var cert models.Certification
			err := it.Item().Value(func(val []byte) error {
				return unmarshalValue(val, &cert)
			})
			if err != nil {
				return err
			}
			cert.IsValid = cert.ValidAt(now)
			certs = append(certs, cert)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, newNotFoundError("Product", fmt.Sprintf("product with id %d does not exist", productID))
		}
		return nil, newReadFailure(err)
	}
	return certs, nil
}
