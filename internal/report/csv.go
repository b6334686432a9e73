package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"
)

// utf8BOM makes spreadsheet tools detect the encoding correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{
	"Date", "Channel", "Campaign",
	"Impressions", "Clicks", "Cost", "Conversions", "Revenue",
	"CTR", "CPC", "CPA", "ROAS",
}

// Filename returns the canonical export name for a report generated on the
// given day.
func Filename(day time.Time) string {
	return fmt.Sprintf("report_%s.csv", day.UTC().Format("2006-01-02"))
}

// ToCSV renders the report rows as a BOM-prefixed CSV document.
func ToCSV(rep *Report) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	for _, row := range rep.Rows {
		record := []string{
			row.Date,
			string(row.Channel),
			row.CampaignID,
			strconv.FormatInt(row.Impressions, 10),
			strconv.FormatInt(row.Clicks, 10),
			strconv.FormatFloat(row.Cost, 'f', 2, 64),
			strconv.FormatInt(row.Conversions, 10),
			strconv.FormatFloat(row.Revenue, 'f', 2, 64),
			strconv.FormatFloat(row.CTR, 'f', 2, 64),
			strconv.FormatFloat(row.CPC, 'f', 2, 64),
			strconv.FormatFloat(row.CPA, 'f', 2, 64),
			strconv.FormatFloat(row.ROAS, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}
