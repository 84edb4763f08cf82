package models

import "time"

// RawSample is one provider-supplied observation at a point in time.
// Samples exist only during forecast aggregation and are never persisted.
// Temperature is a pointer so a missing provider field is distinguishable
// from a legitimate 0°C reading.
type RawSample struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature *float64  `json:"temperature"`
	Description string    `json:"description"`
}

// ForecastDay is a condensed one-day forecast entry.
type ForecastDay struct {
	Date        string `json:"date"`
	Day         string `json:"day"`
	Temperature int    `json:"temperature"`
	Description string `json:"description"`
}

// WeatherSnapshot is the normalized unit the service operates on: current
// conditions plus at most five daily forecast entries in chronological order.
type WeatherSnapshot struct {
	Location    string        `json:"location"`
	Temperature int           `json:"temperature"`
	Description string        `json:"description"`
	Humidity    int           `json:"humidity"`
	WindSpeed   int           `json:"windSpeed"`
	Pressure    int           `json:"pressure"`
	Visibility  int           `json:"visibility"`
	Forecast    []ForecastDay `json:"forecast"`
}

// AlertType is a stable label for the condition that triggered an alert.
type AlertType string

const (
	AlertHeat   AlertType = "heat"
	AlertFreeze AlertType = "freeze"
	AlertWind   AlertType = "wind"
	AlertStorm  AlertType = "storm"
)

// WeatherAlert is a transient advisory derived from a snapshot. Alerts are
// recomputed on every evaluation and never persisted.
type WeatherAlert struct {
	Type    AlertType `json:"type"`
	Message string    `json:"message"`
	Icon    string    `json:"icon"`
}

// SavedRecord is a user-committed snapshot with save metadata. The embedded
// snapshot and DateSaved are immutable once the record is created; only
// Location, StartDate and EndDate may change via update.
type SavedRecord struct {
	ID          int64           `json:"id"`
	Location    string          `json:"location"`
	DateSaved   string          `json:"dateSaved"`
	Temperature int             `json:"temperature"`
	Weather     string          `json:"weather"`
	StartDate   string          `json:"startDate"`
	EndDate     string          `json:"endDate"`
	Snapshot    WeatherSnapshot `json:"weatherData"`
}
