package models

import "time"

// Certification is one immutable compliance record attached to a product.
// Records are append-only; a newer certification supersedes an older one, an
// existing one is never edited in place.
type Certification struct {
	ProductID    uint64 `gorm:"column:product_id;primaryKey;autoIncrement:false" json:"productId"`
	Seq          uint64 `gorm:"column:seq;primaryKey;autoIncrement:false" json:"seq"`
	CertType     string `gorm:"column:cert_type;type:varchar(100);not null" json:"certType"`
	CertNumber   string `gorm:"column:cert_number;type:varchar(100);not null" json:"certNumber"`
	Issuer       string `gorm:"column:issuer;type:varchar(200);not null" json:"issuer"`
	IssueDate    int64  `gorm:"column:issue_date;not null" json:"issueDate"`   // epoch seconds
	ExpiryDate   int64  `gorm:"column:expiry_date;not null" json:"expiryDate"` // epoch seconds
	DocumentHash string `gorm:"column:document_hash;type:varchar(64)" json:"documentHash"`
	IsValid      bool   `gorm:"-" json:"isValid"`
}

// ValidAt reports whether the certification has not expired at t.
func (c *Certification) ValidAt(t time.Time) bool {
	return t.Unix() <= c.ExpiryDate
}
