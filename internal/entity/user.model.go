package entity

import (
	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Email          string    `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Name           string    `json:"name" gorm:"type:varchar(100)"`
	ProfilePicture string    `json:"profile_picture" gorm:"type:varchar(255)"`
	Role           string    `json:"role" gorm:"type:varchar(100)"`
	IsAdmin        bool      `json:"is_admin" gorm:"type:boolean;default:false"`
	Projects       []Project `json:"projects" gorm:"foreignKey:OwnerID"`
}
