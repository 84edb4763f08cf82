package forecast

import (
	"fmt"
	"math"
	"strings"

	"github.com/kjstillabower/weather-journal-service/internal/models"
)

// maxDays is the number of daily entries a condensed forecast can hold.
const maxDays = 5

// MalformedSampleError reports a sample that cannot be aggregated because a
// required field is absent. Index is the sample's position in the input.
type MalformedSampleError struct {
	Index  int
	Reason string
}

func (e *MalformedSampleError) Error() string {
	return fmt.Sprintf("malformed sample at index %d: %s", e.Index, e.Reason)
}

// Aggregate collapses an ordered sequence of sub-daily observation samples
// into at most five daily forecast entries.
//
// For each local calendar date the sample whose hour falls in [11,13] is
// preferred as that date's representative, one per date, in order of first
// appearance. When fewer than five dates yield a noon-window representative,
// the remainder is filled from the head of the raw sequence in original
// order, without date deduplication.
//
// Empty input yields an empty result. A sample missing its timestamp or
// temperature makes the whole call fail with *MalformedSampleError.
func Aggregate(samples []models.RawSample) ([]models.ForecastDay, error) {
	for i, s := range samples {
		if s.Timestamp.IsZero() {
			return nil, &MalformedSampleError{Index: i, Reason: "missing timestamp"}
		}
		if s.Temperature == nil {
			return nil, &MalformedSampleError{Index: i, Reason: "missing temperature"}
		}
	}

	daily := make([]models.ForecastDay, 0, maxDays)
	seen := make(map[string]bool)

	for _, s := range samples {
		if len(daily) >= maxDays {
			break
		}
		dateKey := s.Timestamp.Format("2006-01-02")
		if seen[dateKey] {
			continue
		}
		hour := s.Timestamp.Hour()
		if hour >= 11 && hour <= 13 {
			daily = append(daily, toDay(s))
			seen[dateKey] = true
		}
	}

	// Not every date has a noon-window sample; pad from the head of the raw
	// sequence, duplicates allowed.
	if len(daily) < maxDays {
		need := maxDays - len(daily)
		for i := 0; i < need && i < len(samples); i++ {
			daily = append(daily, toDay(samples[i]))
		}
	}

	return daily, nil
}

func toDay(s models.RawSample) models.ForecastDay {
	return models.ForecastDay{
		Date:        s.Timestamp.Format("1/2/2006"),
		Day:         s.Timestamp.Format("Mon"),
		Temperature: int(math.Round(*s.Temperature)),
		Description: strings.ToLower(s.Description),
	}
}
