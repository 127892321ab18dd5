package model

import "time"

// Device is a registered greenhouse unit. SerialID is assigned by the owner
// at registration; HardwareID is what the unit itself reports over the wire
// and is what a transport session is correlated with.
type Device struct {
	SerialID    string     `gorm:"primaryKey;size:64" json:"serialId"`
	HardwareID  string     `gorm:"uniqueIndex;size:128;not null" json:"hardwareId"`
	UserID      int64      `gorm:"index;not null" json:"userId"`
	Name        string     `gorm:"size:128" json:"name"`
	Active      bool       `json:"active"`
	ActivatedAt *time.Time `json:"activatedAt"`
	LastSeenAt  *time.Time `json:"lastSeenAt"`
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"-"`

	// Associations
	User User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
