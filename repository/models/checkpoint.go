package models

// Checkpoint is one immutable supply-chain milestone in a product's journey.
// Checkpoints form an append-only sequence per product; Seq is the position in
// that sequence and Timestamp is non-decreasing within it.
type Checkpoint struct {
	ProductID  uint64 `gorm:"column:product_id;primaryKey;autoIncrement:false" json:"productId"`
	Seq        uint64 `gorm:"column:seq;primaryKey;autoIncrement:false" json:"seq"`
	Step       string `gorm:"column:step;type:varchar(200);not null" json:"step"`
	Location   string `gorm:"column:location;type:varchar(200);not null" json:"location"`
	Status     string `gorm:"column:status;type:varchar(50);not null" json:"status"`
	Metadata   string `gorm:"column:metadata;type:text" json:"metadata"`
	RecordedBy string `gorm:"column:recorded_by;type:varchar(100)" json:"recordedBy"`
	Timestamp  int64  `gorm:"column:recorded_at;not null" json:"timestamp"` // epoch seconds, assigned at append
}
