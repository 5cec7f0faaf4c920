package models

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel provides shared columns for all tables. IDs are assigned by the
// store before insert.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}
