package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Preko700/GreenView-sub000/internal/ingest"
	"github.com/Preko700/GreenView-sub000/internal/protocol"
	"github.com/Preko700/GreenView-sub000/internal/store"
)

// Manager owns the single connection slot and wires protocol events to the
// store, the ingestion pipeline, and the configuration synchronizer.
type Manager struct {
	mu        sync.Mutex // guards sess
	connectMu sync.Mutex // held across a whole connect attempt
	sess      *Session

	store   store.Store
	ingest  *ingest.Service
	syncer  *Synchronizer
	readBuf int
}

// NewManager creates a session manager.
func NewManager(st store.Store, ing *ingest.Service, readBufferBytes int) *Manager {
	return &Manager{
		store:   st,
		ingest:  ing,
		syncer:  NewSynchronizer(st),
		readBuf: readBufferBytes,
	}
}

// Connect opens a new session. It fails fast with ErrSessionActive while a
// session is opening or open. A cancelled connect attempt is not an error.
func (m *Manager) Connect(ctx context.Context, open OpenFunc) error {
	if !m.connectMu.TryLock() {
		return ErrSessionActive
	}
	defer m.connectMu.Unlock()

	if cur := m.Current(); cur != nil && cur.Active() {
		return ErrSessionActive
	}

	sess := New(m, m.readBuf)
	m.mu.Lock()
	m.sess = sess
	m.mu.Unlock()

	err := sess.Open(ctx, open)
	if err != nil && errors.Is(err, context.Canceled) {
		log.Printf("session: connect attempt cancelled")
		return nil
	}
	return err
}

// Disconnect closes the current session, if any. Safe to call from any
// trigger; teardown never double-runs.
func (m *Manager) Disconnect() {
	if sess := m.Current(); sess != nil {
		if err := sess.Close(); err != nil {
			log.Printf("session: close error: %v", err)
		}
	}
}

// Current returns the session occupying the slot, which may be closed.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess
}

// Resync re-runs the configuration synchronizer for the open session bound
// to the given hardware identifier.
func (m *Manager) Resync(ctx context.Context, hardwareID string) error {
	sess := m.Current()
	if sess == nil || sess.State() != StateOpen {
		return ErrNotOpen
	}
	if sess.HardwareID() != hardwareID {
		return fmt.Errorf("no open session bound to hardware id %s", hardwareID)
	}
	dev, err := m.store.DeviceByHardwareID(ctx, hardwareID)
	if err != nil {
		return err
	}
	m.syncer.Run(ctx, sess, dev)
	return nil
}

// DeviceConnected implements Hooks: resolve the device and push its
// configuration.
func (m *Manager) DeviceConnected(ctx context.Context, sess *Session, hardwareID string) {
	dev, err := m.store.DeviceByHardwareID(ctx, hardwareID)
	if err != nil {
		log.Printf("session: handshake from unregistered hardware id %s: %v", hardwareID, err)
		return
	}
	m.syncer.Run(ctx, sess, dev)
}

// SensorPayload implements Hooks: forward the payload to the ingestion
// pipeline as a single-item batch.
func (m *Manager) SensorPayload(ctx context.Context, hardwareID string, msg protocol.Message) {
	item := store.ReadingItem{
		HardwareID:   hardwareID,
		Temperature:  msg.Temperature,
		AirHumidity:  msg.AirHumidity,
		SoilHumidity: msg.SoilHumidity,
		LightLevel:   msg.LightLevel,
		WaterLevel:   msg.WaterLevel,
		PH:           msg.PH,
	}
	res, err := m.ingest.Ingest(ctx, []store.ReadingItem{item})
	if err != nil {
		log.Printf("session: failed to ingest payload from %s: %v", hardwareID, err)
		return
	}
	for _, rej := range res.Rejected {
		log.Printf("session: payload from %s rejected: %s", hardwareID, rej.Reason)
	}
}
