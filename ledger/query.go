package ledger

import (
	"github.com/rivulet/traceledger/repository/models"
)

// AuthenticityStatus is the verification outcome included in an aggregated
// read.
type AuthenticityStatus struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

// FullRecord is the aggregated read model of one product: identity, journey,
// certifications and authenticity in a single snapshot.
type FullRecord struct {
	Product        models.Product         `json:"product"`
	Journey        []models.Checkpoint    `json:"journey"`
	Certifications []models.Certification `json:"certifications"`
	Authenticity   AuthenticityStatus     `json:"authenticity"`
}

// GetFullRecord fans out to the registry, journey and certification stores
// and assembles one snapshot. A missing product fails NOT_FOUND; an empty
// journey or certification list is not an error.
func (l *Ledger) GetFullRecord(productID uint64) (*FullRecord, *LedgerError) {
	product, lerr := l.GetDetails(productID)
	if lerr != nil {
		return nil, lerr
	}

	journey, lerr := l.GetJourney(productID)
	if lerr != nil {
		return nil, lerr
	}

	certs, lerr := l.GetCertifications(productID)
	if lerr != nil {
		return nil, lerr
	}

	// Authenticity is recomputed against the stored hash, which doubles as a
	// consistency check of the reverse index.
	verified, lerr := l.Verify(productID, product.QRHash)
	if lerr != nil {
		return nil, lerr
	}
	message := "Product authenticity verified"
	if !verified {
		message = "Product authenticity could not be verified"
	}

	return &FullRecord{
		Product:        *product,
		Journey:        journey,
		Certifications: certs,
		Authenticity: AuthenticityStatus{
			Verified: verified,
			Message:  message,
		},
	}, nil
}

// GetByHash resolves a QR hash through the reverse index and returns the full
// record of the product it is bound to.
func (l *Ledger) GetByHash(qrHash string) (*FullRecord, *LedgerError) {
	productID, lerr := l.LookupByHash(qrHash)
	if lerr != nil {
		return nil, lerr
	}
	return l.GetFullRecord(productID)
}
