package models

import "time"

// Profile is an identity profile living in a tenant's content dataset. On a
// freshly provisioned branch a single demo profile is seeded so the site is
// not empty on first visit.
type Profile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PublicID    string    `gorm:"type:varchar(64);uniqueIndex" json:"public_id"`
	DisplayName string    `gorm:"type:varchar(150)" json:"display_name"`
	Bio         string    `gorm:"type:text" json:"bio"`
	IsDemo      bool      `gorm:"default:false" json:"is_demo"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
