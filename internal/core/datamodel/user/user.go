package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID            string    `gorm:"primaryKey;size:36"`
	Name          string    `gorm:"column:name;not null"`
	NIM           string    `gorm:"column:nim;not null"`
	Email         string    `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash  string    `gorm:"column:password_hash;not null"`
	Role          string    `gorm:"column:role;size:16;index;not null"`
	IdentityQRRef string    `gorm:"column:identity_qr_ref;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns the store-side identifier.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
