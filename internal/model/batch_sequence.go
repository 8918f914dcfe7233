package model

// BatchSequence is the durable month-scoped counter behind batch numbering.
// One row per (year, month); LastSeq is bumped atomically with
// INSERT … ON CONFLICT … RETURNING so numbering stays collision-free across
// concurrent service instances. A new month simply starts a new row at 1.
type BatchSequence struct {
	Year    int `gorm:"primaryKey;autoIncrement:false"`
	Month   int `gorm:"primaryKey;autoIncrement:false"`
	LastSeq int `gorm:"not null;default:0"`
}

func (BatchSequence) TableName() string { return "batch_sequences" }
