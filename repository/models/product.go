package models

// Product is the identity record of a registered product. It is written
// exactly once at registration and never mutated; IsAuthentic is derived on
// read and not persisted in the ledger.
type Product struct {
	ID                uint64 `gorm:"column:product_id;primaryKey" json:"id"`
	Name              string `gorm:"column:name;type:varchar(200);not null" json:"name"`
	Brand             string `gorm:"column:brand;type:varchar(200);not null" json:"brand"`
	SKU               string `gorm:"column:sku;type:varchar(100);not null" json:"sku"`
	Batch             string `gorm:"column:batch;type:varchar(100);not null" json:"batch"`
	OriginFarm        string `gorm:"column:origin_farm;type:varchar(200);not null" json:"originFarm"`
	OriginCountry     string `gorm:"column:origin_country;type:varchar(100);not null" json:"originCountry"`
	ManufacturingDate int64  `gorm:"column:manufacturing_date;not null" json:"manufacturingDate"` // epoch seconds
	QRHash            string `gorm:"column:qr_hash;type:varchar(64);uniqueIndex;not null" json:"qrHash"`
	IsAuthentic       bool   `gorm:"-" json:"isAuthentic"`

	// Relationships (relational mirror only)
	Checkpoints    []Checkpoint    `gorm:"foreignKey:ProductID" json:"-"`
	Certifications []Certification `gorm:"foreignKey:ProductID" json:"-"`
}
