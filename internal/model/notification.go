package model

import "time"

// Threshold alert condition kinds. The (device, condition) pair is the
// deduplication key.
const (
	ConditionTemperatureCriticalHigh = "TEMPERATURE_CRITICAL_HIGH"
	ConditionTemperatureCriticalLow  = "TEMPERATURE_CRITICAL_LOW"
	ConditionAirHumidityHigh         = "AIR_HUMIDITY_HIGH"
	ConditionAirHumidityLow          = "AIR_HUMIDITY_LOW"
	ConditionSoilHumidityHigh        = "SOIL_HUMIDITY_HIGH"
	ConditionSoilHumidityLow         = "SOIL_HUMIDITY_LOW"
	ConditionPHHigh                  = "PH_HIGH"
	ConditionPHLow                   = "PH_LOW"
	ConditionWaterLevelLow           = "WATER_LEVEL_LOW"
)

// Notification is a threshold alert raised for a device owner. Bucket is the
// cooldown time bucket; the unique index on (device, condition, bucket) makes
// the dedup insert atomic under concurrent ingestion.
type Notification struct {
	ID           int64     `gorm:"autoIncrement;primaryKey" json:"id"`
	DeviceSerial string    `gorm:"size:64;not null;uniqueIndex:idx_notifications_dedup" json:"deviceSerial"`
	UserID       int64     `gorm:"index;not null" json:"userId"`
	Condition    string    `gorm:"size:64;not null;uniqueIndex:idx_notifications_dedup" json:"condition"`
	Bucket       int64     `gorm:"not null;uniqueIndex:idx_notifications_dedup" json:"-"`
	Message      string    `gorm:"size:512;not null" json:"message"`
	Read         bool      `json:"read"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
}
