package model

import "time"

// User is the owner of one or more devices. Identity provisioning happens
// outside this service; we only keep the reference.
type User struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;size:256;not null" json:"email"`
	Name      string    `gorm:"size:128" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"-"`

	// Associations
	Devices []Device `gorm:"foreignKey:UserID"`
}
