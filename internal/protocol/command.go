package protocol

import (
	"encoding/json"
	"fmt"
)

// Outbound command names.
const (
	CmdSetInterval        = "set_interval"
	CmdSetPhotoInterval   = "set_photo_interval"
	CmdSetTempUnit        = "set_temp_unit"
	CmdSetAutoIrrigation  = "set_auto_irrigation"
	CmdSetAutoVentilation = "set_auto_ventilation"
)

// Command is an outbound configuration command. Only the fields relevant to
// the command name are populated; absent fields are omitted on the wire.
type Command struct {
	Command    string   `json:"command"`
	ValueMs    *int     `json:"value_ms,omitempty"`
	ValueHours *int     `json:"value_hours,omitempty"`
	Unit       string   `json:"unit,omitempty"`
	Enabled    *bool    `json:"enabled,omitempty"`
	Threshold  *float64 `json:"threshold,omitempty"`
	TempOn     *float64 `json:"temp_on,omitempty"`
	TempOff    *float64 `json:"temp_off,omitempty"`
}

// SetInterval sets the measurement interval in milliseconds.
func SetInterval(ms int) Command {
	return Command{Command: CmdSetInterval, ValueMs: &ms}
}

// SetPhotoInterval sets the photo-capture interval in hours.
func SetPhotoInterval(hours int) Command {
	return Command{Command: CmdSetPhotoInterval, ValueHours: &hours}
}

// SetTempUnit sets the reporting temperature unit.
func SetTempUnit(unit string) Command {
	return Command{Command: CmdSetTempUnit, Unit: unit}
}

// SetAutoIrrigation enables or disables automatic irrigation with its soil
// humidity threshold.
func SetAutoIrrigation(enabled bool, threshold float64) Command {
	return Command{Command: CmdSetAutoIrrigation, Enabled: &enabled, Threshold: &threshold}
}

// SetAutoVentilation enables or disables automatic ventilation with its
// on/off temperatures.
func SetAutoVentilation(enabled bool, tempOn, tempOff float64) Command {
	return Command{Command: CmdSetAutoVentilation, Enabled: &enabled, TempOn: &tempOn, TempOff: &tempOff}
}

// Encode renders the command as one newline-terminated wire record.
func (c Command) Encode() ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode command %s: %w", c.Command, err)
	}
	return append(b, '\n'), nil
}
