package session

import (
	"context"
	"log"

	"github.com/Preko700/GreenView-sub000/internal/model"
	"github.com/Preko700/GreenView-sub000/internal/protocol"
	"github.com/Preko700/GreenView-sub000/internal/store"
)

// Synchronizer pushes the authoritative device configuration over an open
// session as an ordered sequence of independent commands. It only ever
// writes; acknowledgements come back through the read loop.
type Synchronizer struct {
	store store.Store
}

// NewSynchronizer creates a configuration synchronizer.
func NewSynchronizer(st store.Store) *Synchronizer {
	return &Synchronizer{store: st}
}

// Run fetches the device configuration and sends every command best-effort.
// A failed command is logged and does not abort the rest; partial
// synchronization self-heals on the next resync.
func (y *Synchronizer) Run(ctx context.Context, sess *Session, dev model.Device) {
	cfg, err := y.store.Configuration(ctx, dev.SerialID)
	if err != nil {
		log.Printf("sync: no configuration for device %s: %v", dev.SerialID, err)
		return
	}

	sent := 0
	for _, cmd := range ConfigCommands(cfg) {
		if err := sess.Send(cmd); err != nil {
			log.Printf("sync: failed to send %s to device %s: %v", cmd.Command, dev.SerialID, err)
			continue
		}
		sent++
	}
	log.Printf("sync: pushed %d configuration commands to device %s", sent, dev.SerialID)
}

// ConfigCommands renders the configuration as the ordered command sequence
// pushed on handshake or resync. Desired actuator state is intentionally not
// part of it; the unit polls for that out of band.
func ConfigCommands(cfg model.DeviceConfiguration) []protocol.Command {
	return []protocol.Command{
		protocol.SetInterval(cfg.MeasurementIntervalMs),
		protocol.SetPhotoInterval(cfg.PhotoIntervalHours),
		protocol.SetTempUnit(cfg.TemperatureUnit),
		protocol.SetAutoIrrigation(cfg.AutoIrrigationEnabled, cfg.IrrigationThreshold),
		protocol.SetAutoVentilation(cfg.AutoVentilationEnabled, cfg.TemperatureThreshold, cfg.TemperatureFanOffThreshold),
	}
}
