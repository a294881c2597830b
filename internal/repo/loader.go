package repo

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/admitstack/admit-engine/internal/models"
)

// DatasetRow is one pre-validated record of the long-format closing-rank
// table: one offer, one year, one round, one closing rank, plus the offer's
// non-rank attributes. Raw-source cleaning (currency strings, placeholder
// cells, encodings) happens upstream of this loader.
type DatasetRow struct {
	Key         models.OfferKey
	Details     models.OfferDetails
	Year        int
	Round       int
	ClosingRank int
}

// LoadReport summarises a dataset load. Skipped counts individually
// malformed rows, which are tolerated; a structurally invalid source is not.
type LoadReport struct {
	Accepted int
	Skipped  int
}

var requiredColumns = []string{"institute", "course", "category", "quota", "year", "closing_rank"}

// LoadCSV reads a long-format closing-rank CSV. It fails with ErrDataLoad
// when the file is unreadable, the header lacks a required column, or no row
// survives validation. Individually malformed rows are skipped and counted.
func LoadCSV(path string) ([]DatasetRow, LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("%w: open %s: %v", models.ErrDataLoad, path, err)
	}
	defer f.Close()

	rows, report, err := readRows(csv.NewReader(f))
	if err != nil {
		return nil, report, fmt.Errorf("%w: %s: %v", models.ErrDataLoad, path, err)
	}
	return rows, report, nil
}

func readRows(reader *csv.Reader) ([]DatasetRow, LoadReport, error) {
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("read header: %v", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, LoadReport{}, fmt.Errorf("missing required column %q", name)
		}
	}

	var (
		rows   []DatasetRow
		report LoadReport
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.Skipped++
			continue
		}
		row, ok := parseRow(record, cols)
		if !ok {
			report.Skipped++
			continue
		}
		rows = append(rows, row)
		report.Accepted++
	}

	if len(rows) == 0 {
		return nil, report, fmt.Errorf("no valid records")
	}
	return rows, report, nil
}

func parseRow(record []string, cols map[string]int) (DatasetRow, bool) {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	key := models.OfferKey{
		Institute: field("institute"),
		Course:    field("course"),
		Category:  field("category"),
		Quota:     field("quota"),
	}
	if key.Institute == "" || key.Course == "" || key.Category == "" || key.Quota == "" {
		return DatasetRow{}, false
	}

	year, err := strconv.Atoi(field("year"))
	if err != nil || year < 1900 {
		return DatasetRow{}, false
	}
	closing, err := strconv.Atoi(field("closing_rank"))
	if err != nil || closing <= 0 {
		return DatasetRow{}, false
	}
	// Round is optional: 0 means the source never attributed the cutoff to a
	// counseling round.
	round := 0
	if raw := field("round"); raw != "" {
		round, err = strconv.Atoi(raw)
		if err != nil || round < 0 {
			return DatasetRow{}, false
		}
	}

	return DatasetRow{
		Key: key,
		Details: models.OfferDetails{
			State:        field("state"),
			AnnualFee:    optionalFloat(field("annual_fee")),
			StipendYear1: optionalFloat(field("stipend_year_1")),
			BondYears:    optionalInt(field("bond_years")),
			BondPenalty:  optionalFloat(field("bond_penalty")),
			TotalBeds:    optionalInt(field("total_beds")),
		},
		Year:        year,
		Round:       round,
		ClosingRank: closing,
	}, true
}

func optionalFloat(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func optionalInt(raw string) *int {
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}
