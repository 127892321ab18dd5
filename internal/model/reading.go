package model

import "time"

// SensorReading is an immutable measurement fact. Rows are append-only and
// never updated.
type SensorReading struct {
	ID           int64     `gorm:"autoIncrement;primaryKey" json:"id"`
	DeviceSerial string    `gorm:"size:64;not null;index:idx_readings_device_metric_time" json:"deviceSerial"`
	Metric       string    `gorm:"size:32;not null;index:idx_readings_device_metric_time" json:"metric"`
	Value        float64   `gorm:"not null" json:"value"`
	Unit         string    `gorm:"size:16" json:"unit"`
	MeasuredAt   time.Time `gorm:"not null;index:idx_readings_device_metric_time" json:"measuredAt"`
}
