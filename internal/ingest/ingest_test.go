package ingest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Preko700/GreenView-sub000/internal/alert"
	"github.com/Preko700/GreenView-sub000/internal/model"
	"github.com/Preko700/GreenView-sub000/internal/store"
)

func newTestService(t *testing.T) (*Service, store.Store, *alert.Evaluator) {
	t.Helper()
	dsn := fmt.Sprintf("file:ingest_%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Device{},
		&model.DeviceConfiguration{},
		&model.DesiredActuatorState{},
		&model.SensorReading{},
		&model.Notification{},
	))

	s := store.NewGormStore(db)
	require.NoError(t, s.DB().Create(&model.User{ID: 1, Email: "grower@example.com"}).Error)
	require.NoError(t, s.RegisterDevice(context.Background(), model.Device{
		SerialID: "GV-1", HardwareID: "HW1", UserID: 1,
	}))

	ev := alert.NewEvaluator(s, 30*time.Minute)
	return NewService(s, ev), s, ev
}

func f(v float64) *float64 { return &v }

func TestIngest_PersistsAndEvaluates(t *testing.T) {
	svc, s, ev := newTestService(t)

	// Arm one threshold so the breach reaches the notifier.
	cfg, err := s.Configuration(context.Background(), "GV-1")
	require.NoError(t, err)
	cfg.NotificationTemperatureHigh = f(35)
	require.NoError(t, s.SaveConfiguration(context.Background(), 1, cfg))

	var delivered []model.Notification
	ev.SetNotifier(func(n model.Notification) { delivered = append(delivered, n) })

	res, err := svc.Ingest(context.Background(), []store.ReadingItem{
		{HardwareID: "HW1", Temperature: f(42), AirHumidity: f(60)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Accepted)
	assert.Empty(t, res.Rejected)

	require.Len(t, delivered, 1)
	assert.Equal(t, model.ConditionTemperatureCriticalHigh, delivered[0].Condition)

	readings, err := s.RecentReadings(context.Background(), "GV-1", "", 10)
	require.NoError(t, err)
	assert.Len(t, readings, 2)
}

func TestIngest_RejectedItemsDoNotAbortBatch(t *testing.T) {
	svc, s, _ := newTestService(t)

	res, err := svc.Ingest(context.Background(), []store.ReadingItem{
		{HardwareID: "HW-unknown", Temperature: f(20)},
		{HardwareID: "HW1", SoilHumidity: f(200)},
		{HardwareID: "HW1", Temperature: f(21)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Accepted)
	assert.Len(t, res.Rejected, 2)

	readings, err := s.RecentReadings(context.Background(), "GV-1", store.MetricTemperature, 10)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 21.0, readings[0].Value)
}

func TestIngest_EmptyBatch(t *testing.T) {
	svc, _, _ := newTestService(t)

	res, err := svc.Ingest(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, res.Accepted)
	assert.Empty(t, res.Rejected)
}
