package model

import (
	"errors"
	"fmt"
	"time"
)

// Temperature units accepted by the configuration and the set_temp_unit command.
const (
	UnitCelsius    = "CELSIUS"
	UnitFahrenheit = "FAHRENHEIT"
)

var (
	ErrInvalidTemperatureUnit = errors.New("temperature unit must be CELSIUS or FAHRENHEIT")
	ErrVentilationThresholds  = errors.New("temperatureFanOffThreshold must be below temperatureThreshold")
)

// DeviceConfiguration holds the authoritative, owner-editable settings for a
// device. It is pushed to the unit by the configuration synchronizer on
// handshake or resync; the unit never writes it back.
type DeviceConfiguration struct {
	DeviceSerial          string `gorm:"primaryKey;size:64" json:"deviceSerial"`
	MeasurementIntervalMs int    `json:"measurementInterval"`
	PhotoIntervalHours    int    `json:"photoInterval"`
	TemperatureUnit       string `gorm:"size:16" json:"temperatureUnit"`

	AutoIrrigationEnabled bool    `json:"autoIrrigation"`
	IrrigationThreshold   float64 `json:"irrigationThreshold"`

	// Ventilation turns on at TemperatureThreshold and back off at
	// TemperatureFanOffThreshold; off must stay strictly below on.
	AutoVentilationEnabled     bool    `json:"autoVentilation"`
	TemperatureThreshold       float64 `json:"temperatureThreshold"`
	TemperatureFanOffThreshold float64 `json:"temperatureFanOffThreshold"`

	// Notification thresholds. A nil pointer disables the corresponding rule.
	NotificationTemperatureLow   *float64 `json:"notificationTemperatureLow"`
	NotificationTemperatureHigh  *float64 `json:"notificationTemperatureHigh"`
	NotificationAirHumidityLow   *float64 `json:"notificationAirHumidityLow"`
	NotificationAirHumidityHigh  *float64 `json:"notificationAirHumidityHigh"`
	NotificationSoilHumidityLow  *float64 `json:"notificationSoilHumidityLow"`
	NotificationSoilHumidityHigh *float64 `json:"notificationSoilHumidityHigh"`
	NotificationPHLow            *float64 `json:"notificationPhLow"`
	NotificationPHHigh           *float64 `json:"notificationPhHigh"`
	NotificationWaterLevelLow    *float64 `json:"notificationWaterLevelLow"`

	UpdatedAt time.Time `json:"-"`
}

// DefaultConfiguration returns the configuration a device gets at registration.
func DefaultConfiguration(serial string) DeviceConfiguration {
	return DeviceConfiguration{
		DeviceSerial:               serial,
		MeasurementIntervalMs:      60000,
		PhotoIntervalHours:         24,
		TemperatureUnit:            UnitCelsius,
		AutoIrrigationEnabled:      false,
		IrrigationThreshold:        30,
		AutoVentilationEnabled:     false,
		TemperatureThreshold:       30,
		TemperatureFanOffThreshold: 26,
	}
}

// Validate checks the configuration invariants. It is called on every write
// through the configuration API; an invalid configuration is never persisted.
func (c *DeviceConfiguration) Validate() error {
	if c.TemperatureUnit != UnitCelsius && c.TemperatureUnit != UnitFahrenheit {
		return ErrInvalidTemperatureUnit
	}
	if c.MeasurementIntervalMs <= 0 {
		return errors.New("measurement interval must be positive")
	}
	if c.PhotoIntervalHours <= 0 {
		return errors.New("photo interval must be positive")
	}
	if c.TemperatureFanOffThreshold >= c.TemperatureThreshold {
		return ErrVentilationThresholds
	}
	pairs := []struct {
		name      string
		low, high *float64
	}{
		{"temperature", c.NotificationTemperatureLow, c.NotificationTemperatureHigh},
		{"airHumidity", c.NotificationAirHumidityLow, c.NotificationAirHumidityHigh},
		{"soilHumidity", c.NotificationSoilHumidityLow, c.NotificationSoilHumidityHigh},
		{"ph", c.NotificationPHLow, c.NotificationPHHigh},
	}
	for _, p := range pairs {
		if p.low != nil && p.high != nil && *p.low >= *p.high {
			return fmt.Errorf("notification thresholds for %s: low must be below high", p.name)
		}
	}
	return nil
}
