package model

import "time"

// Actuator names accepted by the control API.
const (
	ActuatorLight      = "light"
	ActuatorFan        = "fan"
	ActuatorIrrigation = "irrigation"
	ActuatorAuxLight   = "aux_light"
)

// DesiredActuatorState is the target (not actual) on/off state per actuator.
// It is written by user commands and read by the unit when it polls; there is
// no guaranteed-delivery channel, so convergence is eventual.
type DesiredActuatorState struct {
	DeviceSerial string    `gorm:"primaryKey;size:64" json:"deviceSerial"`
	Light        bool      `json:"light"`
	Fan          bool      `json:"fan"`
	Irrigation   bool      `json:"irrigation"`
	AuxLight     bool      `json:"auxLight"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
