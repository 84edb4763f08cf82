package alerts

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kjstillabower/weather-journal-service/internal/models"
)

// ErrEmptyForecast is returned when insight computation requires a non-empty
// forecast. Callers must guarantee the snapshot carries forecast entries.
var ErrEmptyForecast = errors.New("snapshot has no forecast entries")

// Evaluate applies the alert rules to a snapshot and returns the alerts that
// fired, in rule declaration order. Rules are independent; any subset can
// fire for the same snapshot.
func Evaluate(snapshot models.WeatherSnapshot) []models.WeatherAlert {
	var fired []models.WeatherAlert

	if snapshot.Temperature > 35 {
		fired = append(fired, models.WeatherAlert{
			Type:    models.AlertHeat,
			Message: "Heat Warning: Temperature is extremely high",
			Icon:    "⚠️",
		})
	}

	if snapshot.Temperature < 0 {
		fired = append(fired, models.WeatherAlert{
			Type:    models.AlertFreeze,
			Message: "Freeze Warning: Temperature is below freezing",
			Icon:    "❄️",
		})
	}

	if snapshot.WindSpeed > 50 {
		fired = append(fired, models.WeatherAlert{
			Type:    models.AlertWind,
			Message: "Wind Warning: High wind speeds detected",
			Icon:    "💨",
		})
	}

	if strings.Contains(snapshot.Description, "thunderstorm") {
		fired = append(fired, models.WeatherAlert{
			Type:    models.AlertStorm,
			Message: "Storm Alert: Thunderstorm conditions",
			Icon:    "⛈️",
		})
	}

	return fired
}

// Insights derives human-readable observations from a snapshot's forecast:
// the average forecast temperature, a rain-count advisory when more than two
// days mention rain, and a best-day recommendation.
//
// The best-day scan excludes rainy days under a strict greater-than
// comparison, so the first of equal-temperature candidates wins. When every
// day mentions rain the scan's initial accumulator (the first day) is
// reported as-is, rainy description and all. That mirrors the behaviour of
// the tool this service replaces and is kept intentionally.
func Insights(snapshot models.WeatherSnapshot) ([]string, error) {
	if len(snapshot.Forecast) == 0 {
		return nil, ErrEmptyForecast
	}

	var insights []string

	sum := 0
	for _, fd := range snapshot.Forecast {
		sum += fd.Temperature
	}
	avg := int(math.Round(float64(sum) / float64(len(snapshot.Forecast))))
	insights = append(insights, fmt.Sprintf("Average temperature for the next 5 days: %d°C", avg))

	rainy := 0
	for _, fd := range snapshot.Forecast {
		if strings.Contains(fd.Description, "rain") {
			rainy++
		}
	}
	if rainy > 2 {
		insights = append(insights, fmt.Sprintf("Expect rain on %d out of 5 days. Pack an umbrella!", rainy))
	}

	best := snapshot.Forecast[0]
	for _, fd := range snapshot.Forecast[1:] {
		if fd.Temperature > best.Temperature && !strings.Contains(fd.Description, "rain") {
			best = fd
		}
	}
	insights = append(insights, fmt.Sprintf("Best weather expected on %s: %d°C with %s",
		best.Day, best.Temperature, best.Description))

	return insights, nil
}
