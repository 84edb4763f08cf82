package export

import (
	"reflect"
	"strings"
	"testing"

	"github.com/kjstillabower/weather-journal-service/internal/models"
)

func sampleRecords() []models.SavedRecord {
	return []models.SavedRecord{
		{
			ID:          1710072000000,
			Location:    "New York, US",
			DateSaved:   "3/10/2025",
			Temperature: 18,
			Weather:     "scattered clouds",
			StartDate:   "2025-03-10",
			EndDate:     "2025-03-17",
			Snapshot: models.WeatherSnapshot{
				Location:    "New York, US",
				Temperature: 18,
				Description: "scattered clouds",
				Humidity:    65,
				WindSpeed:   14,
				Pressure:    1012,
				Visibility:  10,
				Forecast: []models.ForecastDay{
					{Date: "3/11/2025", Day: "Tue", Temperature: 19, Description: "light rain"},
				},
			},
		},
		{
			ID:          1710072000001,
			Location:    "Oslo, NO",
			DateSaved:   "3/10/2025",
			Temperature: -2,
			Weather:     "snow",
			StartDate:   "2025-03-12",
			EndDate:     "2025-03-14",
		},
	}
}

// TestExport_JSONRoundTrip verifies the JSON export decodes back into a
// record set equal by value to the input, embedded snapshots included.
func TestExport_JSONRoundTrip(t *testing.T) {
	records := sampleRecords()

	data, err := Export(records, FormatJSON)
	if err != nil {
		t.Fatalf("Export(json) error = %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, records)
	}
}

// TestExport_JSONEmpty verifies an empty record set exports as an empty JSON
// array, not null.
func TestExport_JSONEmpty(t *testing.T) {
	data, err := Export(nil, FormatJSON)
	if err != nil {
		t.Fatalf("Export(json) error = %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("Export(json) on empty set = %s, want []", data)
	}
}

// TestExport_CSV verifies the header, per-field quoting, and that a comma
// inside a quoted field does not break the 7-column row convention.
func TestExport_CSV(t *testing.T) {
	data, err := Export(sampleRecords(), FormatCSV)
	if err != nil {
		t.Fatalf("Export(csv) error = %v", err)
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) != 3 {
		t.Fatalf("CSV line count = %d, want 3 (header + 2 rows)", len(lines))
	}
	wantHeader := `"ID","Location","Date Saved","Temperature","Weather","Start Date","End Date"`
	if lines[0] != wantHeader {
		t.Errorf("header = %s, want %s", lines[0], wantHeader)
	}
	if !strings.Contains(lines[1], `"New York, US"`) {
		t.Errorf("row = %s, want quoted location with embedded comma intact", lines[1])
	}
	// Splitting on the quote-comma-quote boundary honours the 7-column
	// convention even with a comma inside a field.
	cols := strings.Split(strings.Trim(lines[1], `"`), `","`)
	if len(cols) != 7 {
		t.Errorf("row column count = %d, want 7", len(cols))
	}
}

// TestExport_CSVVerbatimQuoting verifies fields are quoted without internal
// quote escaping, the documented limitation of the flat view.
func TestExport_CSVVerbatimQuoting(t *testing.T) {
	records := []models.SavedRecord{{
		ID:       1,
		Location: `The "Windy" City`,
	}}

	data, err := Export(records, FormatCSV)
	if err != nil {
		t.Fatalf("Export(csv) error = %v", err)
	}
	if !strings.Contains(string(data), `"The "Windy" City"`) {
		t.Errorf("CSV = %s, want verbatim unescaped quotes", data)
	}
}

// TestExport_XMLEscaping verifies free-text fields are escaped while numeric
// and date leaves stay verbatim.
func TestExport_XMLEscaping(t *testing.T) {
	records := []models.SavedRecord{{
		ID:          42,
		Location:    "Fish & Chips <Town>",
		DateSaved:   "3/10/2025",
		Temperature: -3,
		Weather:     "it's \"snowing\"",
		StartDate:   "2025-03-10",
		EndDate:     "2025-03-17",
	}}

	data, err := Export(records, FormatXML)
	if err != nil {
		t.Fatalf("Export(xml) error = %v", err)
	}
	xml := string(data)

	if !strings.HasPrefix(xml, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<weatherData>") {
		t.Errorf("XML missing declaration/root: %s", xml[:60])
	}
	if !strings.Contains(xml, "<location>Fish &amp; Chips &lt;Town&gt;</location>") {
		t.Errorf("location not escaped: %s", xml)
	}
	if !strings.Contains(xml, "<weather>it&apos;s &quot;snowing&quot;</weather>") {
		t.Errorf("weather not escaped: %s", xml)
	}
	if !strings.Contains(xml, "<temperature>-3</temperature>") {
		t.Errorf("numeric leaf not verbatim: %s", xml)
	}
	if !strings.Contains(xml, "<startDate>2025-03-10</startDate>") {
		t.Errorf("date leaf not verbatim: %s", xml)
	}
	if !strings.HasSuffix(xml, "</weatherData>") {
		t.Error("XML missing closing root element")
	}
}

// TestExport_XMLRecordOrder verifies records appear in store order.
func TestExport_XMLRecordOrder(t *testing.T) {
	data, err := Export(sampleRecords(), FormatXML)
	if err != nil {
		t.Fatalf("Export(xml) error = %v", err)
	}
	xml := string(data)
	first := strings.Index(xml, "New York, US")
	second := strings.Index(xml, "Oslo, NO")
	if first < 0 || second < 0 || first > second {
		t.Errorf("record order not preserved in XML output")
	}
}

// TestExport_UnknownFormat verifies unsupported formats are rejected.
func TestExport_UnknownFormat(t *testing.T) {
	if _, err := Export(sampleRecords(), Format("yaml")); err == nil {
		t.Error("Export(yaml) error = nil, want unsupported format error")
	}
}

// TestFormat_ContentType verifies MIME types for the supported formats.
func TestFormat_ContentType(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, "application/json"},
		{FormatCSV, "text/csv"},
		{FormatXML, "application/xml"},
		{Format("bogus"), ""},
	}
	for _, tc := range tests {
		if got := tc.format.ContentType(); got != tc.want {
			t.Errorf("ContentType(%q) = %q, want %q", tc.format, got, tc.want)
		}
	}
}
