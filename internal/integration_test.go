package internal

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Preko700/GreenView-sub000/config"
	"github.com/Preko700/GreenView-sub000/internal/alert"
	"github.com/Preko700/GreenView-sub000/internal/api"
	"github.com/Preko700/GreenView-sub000/internal/ingest"
	"github.com/Preko700/GreenView-sub000/internal/model"
	"github.com/Preko700/GreenView-sub000/internal/mw"
	"github.com/Preko700/GreenView-sub000/internal/session"
	"github.com/Preko700/GreenView-sub000/internal/store"
)

// TestDeviceLifecycle walks the whole path a greenhouse unit takes: owner
// registers it over HTTP, the unit connects over the stream transport and
// gets its configuration pushed, its sensor payload lands in storage and
// raises a threshold alert, and an actuator change becomes visible on the
// next reconciliation poll.
func TestDeviceLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open("file:lifecycle?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	require.NoError(t, testDB.AutoMigrate(
		&model.User{},
		&model.Device{},
		&model.DeviceConfiguration{},
		&model.DesiredActuatorState{},
		&model.SensorReading{},
		&model.Notification{},
		&model.PushSubscription{},
	))

	gormStore := store.NewGormStore(testDB)
	require.NoError(t, testDB.Create(&model.User{ID: 1, Email: "grower@example.com"}).Error)

	evaluator := alert.NewEvaluator(gormStore, 30*time.Minute)
	pipeline := ingest.NewService(gormStore, evaluator)
	sessions := session.NewManager(gormStore, pipeline, 0)

	serverCfg := &config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 1}
	router := api.NewRouter(serverCfg, gormStore, pipeline, sessions, nil)

	call := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		req.Header.Set(mw.UserHeader, "1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("owner registers the device", func(t *testing.T) {
		w := call(http.MethodPost, "/api/devices", `{"serialId":"GV-1","hardwareId":"HW1","name":"North"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("owner arms a temperature threshold", func(t *testing.T) {
		w := call(http.MethodGet, "/api/configurations/GV-1", "")
		require.Equal(t, http.StatusOK, w.Code)
		var cfg model.DeviceConfiguration
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))

		high := 35.0
		cfg.NotificationTemperatureHigh = &high
		body, _ := json.Marshal(cfg)
		w = call(http.MethodPut, "/api/configurations/GV-1", string(body))
		require.Equal(t, http.StatusOK, w.Code)
	})

	local, peer := net.Pipe()
	defer peer.Close()

	t.Run("unit connects and receives its configuration", func(t *testing.T) {
		require.NoError(t, sessions.Connect(context.Background(), func(context.Context) (io.ReadWriteCloser, error) {
			return local, nil
		}))

		pushed := make(chan []string, 1)
		go func() {
			scanner := bufio.NewScanner(peer)
			var names []string
			for len(names) < 5 && scanner.Scan() {
				var cmd struct {
					Command string `json:"command"`
				}
				if json.Unmarshal(scanner.Bytes(), &cmd) == nil {
					names = append(names, cmd.Command)
				}
			}
			pushed <- names
		}()

		_, err := peer.Write([]byte(`{"type":"hello_arduino","hardwareId":"HW1"}` + "\n"))
		require.NoError(t, err)

		select {
		case names := <-pushed:
			assert.Equal(t, []string{
				"set_interval",
				"set_photo_interval",
				"set_temp_unit",
				"set_auto_irrigation",
				"set_auto_ventilation",
			}, names)
		case <-time.After(2 * time.Second):
			t.Fatal("no configuration pushed after handshake")
		}
	})

	t.Run("sensor payload is stored and raises an alert", func(t *testing.T) {
		_, err := peer.Write([]byte(`{"hardwareId":"HW1","temperature":42.0,"soilHumidity":55}` + "\n"))
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			readings, err := gormStore.RecentReadings(context.Background(), "GV-1", "", 10)
			return err == nil && len(readings) == 2
		}, 2*time.Second, 10*time.Millisecond)

		// The device came alive on first ingest.
		dev, err := gormStore.DeviceByHardwareID(context.Background(), "HW1")
		require.NoError(t, err)
		assert.True(t, dev.Active)
		require.NotNil(t, dev.LastSeenAt)

		w := call(http.MethodGet, "/api/notifications", "")
		require.Equal(t, http.StatusOK, w.Code)
		var notifications []model.Notification
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notifications))
		require.Len(t, notifications, 1)
		assert.Equal(t, model.ConditionTemperatureCriticalHigh, notifications[0].Condition)
	})

	t.Run("actuator change shows up on the reconciliation poll", func(t *testing.T) {
		w := call(http.MethodPost, "/api/actuators/GV-1/irrigation", `{"state":true}`)
		require.Equal(t, http.StatusOK, w.Code)

		w = call(http.MethodGet, "/api/poll/HW1/actuators", "")
		require.Equal(t, http.StatusOK, w.Code)
		var state model.DesiredActuatorState
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
		assert.True(t, state.Irrigation)
		assert.False(t, state.Fan)
	})

	t.Run("resync pushes the configuration again", func(t *testing.T) {
		pushed := make(chan int, 1)
		go func() {
			scanner := bufio.NewScanner(peer)
			n := 0
			for n < 5 && scanner.Scan() {
				n++
			}
			pushed <- n
		}()

		w := call(http.MethodPost, "/api/resync/HW1", "")
		require.Equal(t, http.StatusOK, w.Code)

		select {
		case n := <-pushed:
			assert.Equal(t, 5, n)
		case <-time.After(2 * time.Second):
			t.Fatal("resync pushed nothing")
		}
	})

	t.Run("disconnect closes the session", func(t *testing.T) {
		sessions.Disconnect()
		assert.Equal(t, session.StateClosed, sessions.Current().State())
	})
}
