package alert

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

	"github.com/Preko700/GreenView-sub000/internal/model"
	"github.com/Preko700/GreenView-sub000/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:alert_%s?mode=memory&cache=shared",
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
	return s
}

func cfgWithTempHigh(serial string, high float64) model.DeviceConfiguration {
	cfg := model.DefaultConfiguration(serial)
	cfg.NotificationTemperatureHigh = &high
	return cfg
}

func TestEvaluate_CooldownSuppression(t *testing.T) {
	s := newTestStore(t)
	cooldown := 30 * time.Minute
	now := time.Now().UTC().Truncate(time.Hour)

	ev := NewEvaluator(s, cooldown)
	ev.SetClock(func() time.Time { return now })

	var delivered []model.Notification
	ev.SetNotifier(func(n model.Notification) { delivered = append(delivered, n) })

	cfg := cfgWithTempHigh("GV-1", 35)
	reading := store.AcceptedReading{
		DeviceSerial: "GV-1", UserID: 1,
		Metric: store.MetricTemperature, Value: 42,
	}

	ev.Evaluate(context.Background(), cfg, reading)
	require.Len(t, delivered, 1)
	assert.Equal(t, model.ConditionTemperatureCriticalHigh, delivered[0].Condition)
	assert.Contains(t, delivered[0].Message, "42.0")

	// One second later the same breach is suppressed.
	now = now.Add(time.Second)
	ev.Evaluate(context.Background(), cfg, reading)
	assert.Len(t, delivered, 1)

	// After the cooldown a fresh breach raises a second notification.
	now = now.Add(cooldown)
	ev.Evaluate(context.Background(), cfg, reading)
	assert.Len(t, delivered, 2)

	notifications, err := s.NotificationsForUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, notifications, 2)
}

func TestEvaluate_NilThresholdDisabled(t *testing.T) {
	s := newTestStore(t)
	ev := NewEvaluator(s, time.Minute)

	var delivered int
	ev.SetNotifier(func(model.Notification) { delivered++ })

	cfg := model.DefaultConfiguration("GV-1") // all thresholds nil
	ev.Evaluate(context.Background(), cfg, store.AcceptedReading{
		DeviceSerial: "GV-1", UserID: 1,
		Metric: store.MetricTemperature, Value: 99,
	})
	assert.Zero(t, delivered)
}

func TestEvaluate_IndependentConditions(t *testing.T) {
	s := newTestStore(t)
	ev := NewEvaluator(s, time.Hour)

	var conditions []string
	ev.SetNotifier(func(n model.Notification) { conditions = append(conditions, n.Condition) })

	cfg := model.DefaultConfiguration("GV-1")
	high, low := 35.0, 30.0
	cfg.NotificationTemperatureHigh = &high
	cfg.NotificationSoilHumidityLow = &low

	ev.Evaluate(context.Background(), cfg, store.AcceptedReading{
		DeviceSerial: "GV-1", UserID: 1, Metric: store.MetricTemperature, Value: 40,
	})
	ev.Evaluate(context.Background(), cfg, store.AcceptedReading{
		DeviceSerial: "GV-1", UserID: 1, Metric: store.MetricSoilHumidity, Value: 12,
	})
	assert.Equal(t, []string{
		model.ConditionTemperatureCriticalHigh,
		model.ConditionSoilHumidityLow,
	}, conditions)
}

func TestBreaches(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name   string
		cfg    func() model.DeviceConfiguration
		metric store.Metric
		value  float64
		want   []string
	}{
		{
			name: "value at threshold does not fire",
			cfg: func() model.DeviceConfiguration {
				c := model.DefaultConfiguration("d")
				c.NotificationTemperatureHigh = f(35)
				return c
			},
			metric: store.MetricTemperature, value: 35, want: nil,
		},
		{
			name: "water level only has a low rule",
			cfg: func() model.DeviceConfiguration {
				c := model.DefaultConfiguration("d")
				c.NotificationWaterLevelLow = f(10)
				return c
			},
			metric: store.MetricWaterLevel, value: 5,
			want: []string{model.ConditionWaterLevelLow},
		},
		{
			name: "light level never alerts",
			cfg: func() model.DeviceConfiguration {
				c := model.DefaultConfiguration("d")
				c.NotificationTemperatureHigh = f(1)
				return c
			},
			metric: store.MetricLightLevel, value: 1000, want: nil,
		},
		{
			name: "ph below low",
			cfg: func() model.DeviceConfiguration {
				c := model.DefaultConfiguration("d")
				c.NotificationPHLow = f(5.5)
				return c
			},
			metric: store.MetricPH, value: 4.2,
			want: []string{model.ConditionPHLow},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := breaches(tt.cfg(), tt.metric, tt.value)
			var conditions []string
			for _, b := range got {
				conditions = append(conditions, b.condition)
			}
			assert.Equal(t, tt.want, conditions)
		})
	}
}
