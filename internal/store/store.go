package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Preko700/GreenView-sub000/internal/model"
)

// Sentinel errors returned by the store. Handlers map these to response codes.
var (
	ErrNotFound        = errors.New("record not found")
	ErrNotOwner        = errors.New("device is not owned by caller")
	ErrUnknownActuator = errors.New("unknown actuator")
	ErrDuplicateDevice = errors.New("device already registered")
)

// actuatorColumns maps API actuator names to desired-state columns.
var actuatorColumns = map[string]string{
	model.ActuatorLight:      "light",
	model.ActuatorFan:        "fan",
	model.ActuatorIrrigation: "irrigation",
	model.ActuatorAuxLight:   "aux_light",
}

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	RegisterDevice(ctx context.Context, dev model.Device) error
	DeviceByHardwareID(ctx context.Context, hardwareID string) (model.Device, error)
	DeviceForOwner(ctx context.Context, serial string, userID int64) (model.Device, error)

	Configuration(ctx context.Context, serial string) (model.DeviceConfiguration, error)
	SaveConfiguration(ctx context.Context, userID int64, cfg model.DeviceConfiguration) error

	DesiredState(ctx context.Context, serial string) (model.DesiredActuatorState, error)
	SetActuator(ctx context.Context, serial string, userID int64, actuator string, state bool) error

	IngestReadings(ctx context.Context, now time.Time, items []ReadingItem) (IngestResult, error)
	RecentReadings(ctx context.Context, serial string, metric Metric, limit int) ([]model.SensorReading, error)

	CreateNotificationIfNew(ctx context.Context, now time.Time, cooldown time.Duration, n model.Notification) (bool, error)
	NotificationsForUser(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id int64) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// RegisterDevice creates the device together with its default configuration
// and an all-off desired actuator state, in one transaction.
func (s *gormStore) RegisterDevice(ctx context.Context, dev model.Device) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&dev)
		if res.Error != nil {
			return fmt.Errorf("failed to create device %s: %w", dev.SerialID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrDuplicateDevice
		}

		cfg := model.DefaultConfiguration(dev.SerialID)
		if err := tx.Create(&cfg).Error; err != nil {
			return fmt.Errorf("failed to create default configuration: %w", err)
		}

		state := model.DesiredActuatorState{DeviceSerial: dev.SerialID}
		if err := tx.Create(&state).Error; err != nil {
			return fmt.Errorf("failed to create desired actuator state: %w", err)
		}
		return nil
	})
}

func (s *gormStore) DeviceByHardwareID(ctx context.Context, hardwareID string) (model.Device, error) {
	var dev model.Device
	err := s.db.WithContext(ctx).First(&dev, "hardware_id = ?", hardwareID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Device{}, ErrNotFound
	}
	return dev, err
}

// DeviceForOwner fetches a device by serial and verifies ownership.
func (s *gormStore) DeviceForOwner(ctx context.Context, serial string, userID int64) (model.Device, error) {
	var dev model.Device
	err := s.db.WithContext(ctx).First(&dev, "serial_id = ?", serial).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Device{}, ErrNotFound
	}
	if err != nil {
		return model.Device{}, err
	}
	if dev.UserID != userID {
		return model.Device{}, ErrNotOwner
	}
	return dev, nil
}

func (s *gormStore) Configuration(ctx context.Context, serial string) (model.DeviceConfiguration, error) {
	var cfg model.DeviceConfiguration
	err := s.db.WithContext(ctx).First(&cfg, "device_serial = ?", serial).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DeviceConfiguration{}, ErrNotFound
	}
	return cfg, err
}

// SaveConfiguration validates the configuration and replaces the device's
// record. An invalid configuration is never partially applied.
func (s *gormStore) SaveConfiguration(ctx context.Context, userID int64, cfg model.DeviceConfiguration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := s.DeviceForOwner(ctx, cfg.DeviceSerial, userID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Save(&cfg).Error
}

func (s *gormStore) DesiredState(ctx context.Context, serial string) (model.DesiredActuatorState, error) {
	var state model.DesiredActuatorState
	err := s.db.WithContext(ctx).First(&state, "device_serial = ?", serial).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DesiredActuatorState{}, ErrNotFound
	}
	return state, err
}

// SetActuator flips exactly one boolean of the desired state. There is no
// synchronous confirmation; the unit applies the change when it next polls.
func (s *gormStore) SetActuator(ctx context.Context, serial string, userID int64, actuator string, state bool) error {
	column, ok := actuatorColumns[actuator]
	if !ok {
		return ErrUnknownActuator
	}
	if _, err := s.DeviceForOwner(ctx, serial, userID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Model(&model.DesiredActuatorState{}).
		Where("device_serial = ?", serial).
		Updates(map[string]any{column: state, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("failed to update actuator %s for device %s: %w", actuator, serial, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IngestReadings validates and persists a batch. Item-level failures do not
// abort the batch; the commit of everything that did validate is atomic, and
// liveness is updated once per resolved device.
func (s *gormStore) IngestReadings(ctx context.Context, now time.Time, items []ReadingItem) (IngestResult, error) {
	var res IngestResult
	reject := func(i int, hardwareID, reason string) {
		res.Rejected = append(res.Rejected, RejectedItem{Index: i, HardwareID: hardwareID, Reason: reason})
	}

	devices := make(map[string]model.Device) // by hardware id
	seen := make(map[string]bool)            // serial|metric, one reading per metric per batch
	var readings []model.SensorReading
	var accepted []AcceptedReading

	for i, item := range items {
		if item.HardwareID == "" {
			reject(i, "", "missing hardwareId")
			continue
		}

		dev, ok := devices[item.HardwareID]
		if !ok {
			var err error
			dev, err = s.DeviceByHardwareID(ctx, item.HardwareID)
			if errors.Is(err, ErrNotFound) {
				reject(i, item.HardwareID, "unknown device")
				continue
			}
			if err != nil {
				return IngestResult{}, fmt.Errorf("failed to resolve device %s: %w", item.HardwareID, err)
			}
			devices[item.HardwareID] = dev
		}

		values := item.Values()
		if len(values) == 0 {
			reject(i, item.HardwareID, "no metric values present")
			continue
		}
		for _, mv := range values {
			if err := mv.Validate(); err != nil {
				reject(i, item.HardwareID, err.Error())
				continue
			}
			key := dev.SerialID + "|" + string(mv.Metric)
			if seen[key] {
				log.Printf("ingest: duplicate %s for device %s in batch, skipping", mv.Metric, dev.SerialID)
				continue
			}
			seen[key] = true
			readings = append(readings, model.SensorReading{
				DeviceSerial: dev.SerialID,
				Metric:       string(mv.Metric),
				Value:        mv.Value,
				Unit:         UnitFor(mv.Metric),
				MeasuredAt:   now,
			})
			accepted = append(accepted, AcceptedReading{
				DeviceSerial: dev.SerialID,
				UserID:       dev.UserID,
				Metric:       mv.Metric,
				Value:        mv.Value,
			})
		}
	}

	if len(readings) == 0 && len(devices) == 0 {
		return res, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(readings) > 0 {
			if err := tx.Create(&readings).Error; err != nil {
				return fmt.Errorf("failed to persist readings: %w", err)
			}
		}
		for _, dev := range devices {
			updates := map[string]any{"last_seen_at": now, "active": true}
			if dev.ActivatedAt == nil {
				updates["activated_at"] = now
			}
			if err := tx.Model(&model.Device{}).
				Where("serial_id = ?", dev.SerialID).
				Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update liveness for device %s: %w", dev.SerialID, err)
			}
		}
		return nil
	})
	if err != nil {
		return IngestResult{}, err
	}

	res.Accepted = len(readings)
	res.Readings = accepted
	return res, nil
}

func (s *gormStore) RecentReadings(ctx context.Context, serial string, metric Metric, limit int) ([]model.SensorReading, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	q := s.db.WithContext(ctx).Where("device_serial = ?", serial)
	if metric != "" {
		q = q.Where("metric = ?", string(metric))
	}
	var readings []model.SensorReading
	err := q.Order("measured_at DESC").Limit(limit).Find(&readings).Error
	return readings, err
}

// CreateNotificationIfNew inserts the notification unless one with the same
// (device, condition) exists inside the cooldown window. The window check and
// the insert run in one transaction; the unique index on
// (device_serial, condition, bucket) makes two racing inserts collapse to one.
func (s *gormStore) CreateNotificationIfNew(ctx context.Context, now time.Time, cooldown time.Duration, n model.Notification) (bool, error) {
	if cooldown <= 0 {
		cooldown = time.Second
	}
	n.Bucket = now.Unix() / int64(cooldown/time.Second)
	n.CreatedAt = now

	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Notification{}).
			Where("device_serial = ? AND condition = ? AND created_at > ?",
				n.DeviceSerial, n.Condition, now.Add(-cooldown)).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to query recent notifications: %w", err)
		}
		if count > 0 {
			return nil
		}

		res := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "device_serial"}, {Name: "condition"}, {Name: "bucket"},
			},
			DoNothing: true,
		}).Create(&n)
		if res.Error != nil {
			return fmt.Errorf("failed to create notification: %w", res.Error)
		}
		created = res.RowsAffected > 0
		return nil
	})
	return created, err
}

func (s *gormStore) NotificationsForUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	var notifications []model.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(200).
		Find(&notifications).Error
	return notifications, err
}

func (s *gormStore) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	res := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
