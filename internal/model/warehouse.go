package model

import (
	"time"

	"github.com/google/uuid"
)

// Warehouse is a physical stock location. Batches are owned by their
// (product, warehouse) pair, so every ledger operation is scoped to one.
type Warehouse struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code      string    `gorm:"uniqueIndex;not null"`
	Name      string    `gorm:"not null"`
	Location  *string
	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
