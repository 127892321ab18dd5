package store

import "fmt"

// Metric identifies a sensor measurement kind.
type Metric string

const (
	MetricTemperature  Metric = "temperature"
	MetricAirHumidity  Metric = "airHumidity"
	MetricSoilHumidity Metric = "soilHumidity"
	MetricLightLevel   Metric = "lightLevel"
	MetricWaterLevel   Metric = "waterLevel"
	MetricPH           Metric = "ph"
)

// metricUnits maps each metric to the unit recorded with its readings.
var metricUnits = map[Metric]string{
	MetricTemperature:  "C",
	MetricAirHumidity:  "%",
	MetricSoilHumidity: "%",
	MetricLightLevel:   "lux",
	MetricWaterLevel:   "%",
	MetricPH:           "pH",
}

// UnitFor returns the unit string stored alongside readings of the metric.
func UnitFor(m Metric) string {
	return metricUnits[m]
}

// ReadingItem is one device-identified entry of an ingestion batch. All
// metric fields are optional; at least the identifier is required.
type ReadingItem struct {
	HardwareID   string   `json:"hardwareId"`
	Temperature  *float64 `json:"temperature"`
	AirHumidity  *float64 `json:"airHumidity"`
	SoilHumidity *float64 `json:"soilHumidity"`
	LightLevel   *float64 `json:"lightLevel"`
	WaterLevel   *float64 `json:"waterLevel"`
	PH           *float64 `json:"ph"`
}

// MetricValue is one present metric of a ReadingItem.
type MetricValue struct {
	Metric Metric
	Value  float64
}

// Values returns the metrics present on the item, in a fixed order.
func (it ReadingItem) Values() []MetricValue {
	var out []MetricValue
	add := func(m Metric, v *float64) {
		if v != nil {
			out = append(out, MetricValue{Metric: m, Value: *v})
		}
	}
	add(MetricTemperature, it.Temperature)
	add(MetricAirHumidity, it.AirHumidity)
	add(MetricSoilHumidity, it.SoilHumidity)
	add(MetricLightLevel, it.LightLevel)
	add(MetricWaterLevel, it.WaterLevel)
	add(MetricPH, it.PH)
	return out
}

// Validate rejects values that cannot be a real measurement.
func (mv MetricValue) Validate() error {
	switch mv.Metric {
	case MetricSoilHumidity:
		if mv.Value < 0 || mv.Value > 100 {
			return fmt.Errorf("soilHumidity %v out of range 0-100", mv.Value)
		}
	case MetricAirHumidity, MetricWaterLevel:
		if mv.Value < 0 {
			return fmt.Errorf("%s must not be negative", mv.Metric)
		}
	}
	return nil
}

// RejectedItem reports why one batch item (or one of its metrics) was not
// ingested.
type RejectedItem struct {
	Index      int    `json:"index"`
	HardwareID string `json:"hardwareId"`
	Reason     string `json:"reason"`
}

// IngestResult is the outcome of one ingestion batch. Accepted counts
// persisted readings, not items.
type IngestResult struct {
	Accepted int               `json:"accepted"`
	Rejected []RejectedItem    `json:"rejected"`
	Readings []AcceptedReading `json:"-"`
}

// AcceptedReading is a persisted reading together with its resolved device,
// handed to the alert evaluator after the batch commits.
type AcceptedReading struct {
	DeviceSerial string
	UserID       int64
	Metric       Metric
	Value        float64
}
