package entity

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name        string     `json:"name" gorm:"type:varchar(255);not null"`
	Description string     `json:"description" gorm:"type:text"`
	Settings    string     `json:"settings" gorm:"type:json"`
	Active      bool       `json:"active" gorm:"type:boolean;default:true"`
	DueAt       *time.Time `json:"due_at" gorm:"type:timestamp"`
	OwnerID     *uuid.UUID `json:"owner_id" gorm:"type:uuid"`
}
