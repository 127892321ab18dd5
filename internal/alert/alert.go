// Package alert evaluates ingested readings against the device's configured
// notification thresholds and raises deduplicated notifications.
package alert

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Preko700/GreenView-sub000/internal/model"
	"github.com/Preko700/GreenView-sub000/internal/store"
)

// Notifier is called for every notification that was actually created, after
// deduplication. Used to hand alerts to the push delivery pool.
type Notifier func(n model.Notification)

// Evaluator applies threshold rules and creates at most one notification per
// (device, condition) within the cooldown window.
type Evaluator struct {
	store    store.Store
	cooldown time.Duration
	now      func() time.Time
	notify   Notifier
}

// NewEvaluator creates an evaluator with the given cooldown window.
func NewEvaluator(st store.Store, cooldown time.Duration) *Evaluator {
	return &Evaluator{
		store:    st,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// SetNotifier registers the delivery callback for created notifications.
func (e *Evaluator) SetNotifier(fn Notifier) {
	e.notify = fn
}

// SetClock overrides the evaluator's clock. Used by tests.
func (e *Evaluator) SetClock(now func() time.Time) {
	e.now = now
}

// Evaluate checks one freshly-ingested reading against the device
// configuration. Creation is an atomic conditional insert; under concurrent
// ingestion of the same condition only one notification survives.
func (e *Evaluator) Evaluate(ctx context.Context, cfg model.DeviceConfiguration, r store.AcceptedReading) {
	for _, b := range breaches(cfg, r.Metric, r.Value) {
		n := model.Notification{
			DeviceSerial: r.DeviceSerial,
			UserID:       r.UserID,
			Condition:    b.condition,
			Message:      b.message,
		}
		created, err := e.store.CreateNotificationIfNew(ctx, e.now().UTC(), e.cooldown, n)
		if err != nil {
			log.Printf("alert: failed to create %s notification for device %s: %v",
				b.condition, r.DeviceSerial, err)
			continue
		}
		if !created {
			continue
		}
		log.Printf("alert: %s for device %s: %s", b.condition, r.DeviceSerial, b.message)
		if e.notify != nil {
			e.notify(n)
		}
	}
}

type breach struct {
	condition string
	message   string
}

// breaches returns the conditions fired by the value under the configured
// thresholds. A nil threshold disables its rule.
func breaches(cfg model.DeviceConfiguration, metric store.Metric, value float64) []breach {
	var out []breach
	above := func(th *float64, condition, label string) {
		if th != nil && value > *th {
			out = append(out, breach{condition,
				fmt.Sprintf("%s reading %.1f is above the configured threshold %.1f", label, value, *th)})
		}
	}
	below := func(th *float64, condition, label string) {
		if th != nil && value < *th {
			out = append(out, breach{condition,
				fmt.Sprintf("%s reading %.1f is below the configured threshold %.1f", label, value, *th)})
		}
	}

	switch metric {
	case store.MetricTemperature:
		above(cfg.NotificationTemperatureHigh, model.ConditionTemperatureCriticalHigh, "Temperature")
		below(cfg.NotificationTemperatureLow, model.ConditionTemperatureCriticalLow, "Temperature")
	case store.MetricAirHumidity:
		above(cfg.NotificationAirHumidityHigh, model.ConditionAirHumidityHigh, "Air humidity")
		below(cfg.NotificationAirHumidityLow, model.ConditionAirHumidityLow, "Air humidity")
	case store.MetricSoilHumidity:
		above(cfg.NotificationSoilHumidityHigh, model.ConditionSoilHumidityHigh, "Soil humidity")
		below(cfg.NotificationSoilHumidityLow, model.ConditionSoilHumidityLow, "Soil humidity")
	case store.MetricPH:
		above(cfg.NotificationPHHigh, model.ConditionPHHigh, "pH")
		below(cfg.NotificationPHLow, model.ConditionPHLow, "pH")
	case store.MetricWaterLevel:
		below(cfg.NotificationWaterLevelLow, model.ConditionWaterLevelLow, "Water level")
	}
	return out
}
