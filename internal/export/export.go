// Package export serializes the saved record collection into the three
// download formats. JSON is lossless and round-trips through Decode; CSV and
// XML are flat export-only views that drop the embedded snapshot.
package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kjstillabower/weather-journal-service/internal/models"
)

// Format names a supported export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
)

// csvHeader is the fixed column set of the flat export views.
var csvHeader = []string{"ID", "Location", "Date Saved", "Temperature", "Weather", "Start Date", "End Date"}

// ContentType returns the MIME type for a format, or empty for unknown ones.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatXML:
		return "application/xml"
	}
	return ""
}

// Export serializes the records in the requested format. Record order is
// preserved. Unknown formats are rejected.
func Export(records []models.SavedRecord, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return toJSON(records)
	case FormatCSV:
		return toCSV(records), nil
	case FormatXML:
		return toXML(records), nil
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}

// Decode parses a JSON export back into the record set it was produced from.
func Decode(data []byte) ([]models.SavedRecord, error) {
	var records []models.SavedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode JSON export: %w", err)
	}
	return records, nil
}

func toJSON(records []models.SavedRecord) ([]byte, error) {
	if records == nil {
		records = []models.SavedRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode JSON export: %w", err)
	}
	return data, nil
}

// toCSV emits one double-quoted row per record under the fixed header. Fields
// are quoted verbatim; a value that itself contains a double quote is not
// escaped. That corrupts such rows and is a documented limitation carried
// over from the tool this service replaces.
func toCSV(records []models.SavedRecord) []byte {
	var b strings.Builder
	writeCSVRow(&b, csvHeader)
	for _, r := range records {
		b.WriteByte('\n')
		writeCSVRow(&b, []string{
			strconv.FormatInt(r.ID, 10),
			r.Location,
			r.DateSaved,
			strconv.Itoa(r.Temperature),
			r.Weather,
			r.StartDate,
			r.EndDate,
		})
	}
	return []byte(b.String())
}

func writeCSVRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(f)
		b.WriteByte('"')
	}
}

// toXML wraps one <record> element per saved record under a <weatherData>
// root. Free-text fields (location, weather) are escaped; the remaining
// leaves are numeric or date strings by contract and inserted verbatim.
func toXML(records []models.SavedRecord) []byte {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<weatherData>\n")
	for _, r := range records {
		b.WriteString("  <record>\n")
		fmt.Fprintf(&b, "    <id>%d</id>\n", r.ID)
		fmt.Fprintf(&b, "    <location>%s</location>\n", escapeXML(r.Location))
		fmt.Fprintf(&b, "    <dateSaved>%s</dateSaved>\n", r.DateSaved)
		fmt.Fprintf(&b, "    <temperature>%d</temperature>\n", r.Temperature)
		fmt.Fprintf(&b, "    <weather>%s</weather>\n", escapeXML(r.Weather))
		fmt.Fprintf(&b, "    <startDate>%s</startDate>\n", r.StartDate)
		fmt.Fprintf(&b, "    <endDate>%s</endDate>\n", r.EndDate)
		b.WriteString("  </record>\n")
	}
	b.WriteString("</weatherData>")
	return []byte(b.String())
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	"\"", "&quot;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
