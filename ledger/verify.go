package ledger

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// QRPayload is the logical content bound into a product's QR code. Nonce is a
// registration-time random value that makes the hash unique per registration
// even for identical identity fields.
type QRPayload struct {
	Name  string `json:"name"`
	Brand string `json:"brand"`
	SKU   string `json:"sku"`
	Batch string `json:"batch"`
	Nonce string `json:"nonce"`
}

// ComputeHash returns the 256-bit authenticity digest of a payload as
// lowercase hex. The serialization is canonical: values are whitespace
// trimmed and keys are emitted in sorted order, so two callers building the
// same logical payload always produce the same hash regardless of field
// ordering or surrounding whitespace. The generate and scan call sites must
// both go through this function.
func ComputeHash(p QRPayload) string {
	canonical := map[string]string{
		"batch": strings.TrimSpace(p.Batch),
		"brand": strings.TrimSpace(p.Brand),
		"name":  strings.TrimSpace(p.Name),
		"nonce": strings.TrimSpace(p.Nonce),
		"sku":   strings.TrimSpace(p.SKU),
	}
	// encoding/json marshals map keys in sorted order.
	raw, _ := json.Marshal(canonical)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Verify compares a supplied hash against the hash recorded at registration.
// A mismatch is a normal negative result; only an unknown product id is an
// error.
func (l *Ledger) Verify(productID uint64, suppliedHash string) (bool, *LedgerError) {
	product, lerr := l.GetDetails(productID)
	if lerr != nil {
		return false, lerr
	}
	supplied := normalizeHash(suppliedHash)
	if len(supplied) != len(product.QRHash) {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(product.QRHash)) == 1, nil
}
