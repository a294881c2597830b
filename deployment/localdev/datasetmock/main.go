package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
)

// Mock dataset service for local development: serves a deterministic
// closing-rank table over the dataset API, or writes it as CSV with -csv.

type datasetRow struct {
	Institute    string   `json:"institute"`
	Course       string   `json:"course"`
	State        string   `json:"state"`
	Category     string   `json:"category"`
	Quota        string   `json:"quota"`
	AnnualFee    *float64 `json:"annual_fee"`
	StipendYear1 *float64 `json:"stipend_year_1"`
	BondYears    *int     `json:"bond_years"`
	BondPenalty  *float64 `json:"bond_penalty"`
	TotalBeds    *int     `json:"total_beds"`
	Year         int      `json:"year"`
	Round        int      `json:"round"`
	ClosingRank  int      `json:"closing_rank"`
}

type institute struct {
	name     string
	state    string
	quota    string
	baseRank int
	fee      float64
	stipend  float64
	bond     int
	beds     int
}

var institutes = []institute{
	{"AIIMS DELHI", "DELHI", "ALL INDIA", 50, 1628, 26300, 0, 2478},
	{"MAULANA AZAD MEDICAL COLLEGE", "DELHI", "ALL INDIA", 90, 4445, 24000, 0, 2200},
	{"GRANT MEDICAL COLLEGE", "MAHARASHTRA", "STATE GOVERNMENT", 1800, 89000, 21000, 1, 1800},
	{"MADRAS MEDICAL COLLEGE", "TAMIL NADU", "STATE GOVERNMENT", 2500, 13650, 23000, 2, 1700},
	{"KEM HOSPITAL MUMBAI", "MAHARASHTRA", "STATE GOVERNMENT", 2100, 104000, 21000, 1, 1500},
	{"KASTURBA MEDICAL COLLEGE", "KARNATAKA", "MANAGEMENT", 28000, 1650000, 0, 0, 2000},
	{"SRI RAMACHANDRA MEDICAL COLLEGE", "TAMIL NADU", "MANAGEMENT", 45000, 2250000, 0, 0, 1600},
	{"GOVERNMENT MEDICAL COLLEGE NAGPUR", "MAHARASHTRA", "STATE GOVERNMENT", 5200, 82000, 19000, 2, 1400},
}

var categories = []struct {
	name   string
	spread float64
}{
	{"GENERAL", 1.0},
	{"OBC", 1.4},
	{"SC", 4.5},
	{"ST", 6.5},
	{"EWS", 1.2},
}

func generateRows() []datasetRow {
	rng := rand.New(rand.NewSource(42))
	var rows []datasetRow
	for _, inst := range institutes {
		for _, cat := range categories {
			for year := 2022; year <= 2024; year++ {
				base := float64(inst.baseRank) * cat.spread
				// Cutoffs drift a little year to year and relax across rounds.
				yearFactor := 1 + 0.06*float64(year-2022) + rng.Float64()*0.05
				for round := 1; round <= 3; round++ {
					roundFactor := 1 + 0.12*float64(round-1)
					closing := int(base * yearFactor * roundFactor)
					if closing < 1 {
						closing = 1
					}
					rows = append(rows, datasetRow{
						Institute:    inst.name,
						Course:       "MBBS",
						State:        inst.state,
						Category:     cat.name,
						Quota:        inst.quota,
						AnnualFee:    floatPtr(inst.fee),
						StipendYear1: floatPtr(inst.stipend),
						BondYears:    intPtr(inst.bond),
						TotalBeds:    intPtr(inst.beds),
						Year:         year,
						Round:        round,
						ClosingRank:  closing,
					})
				}
			}
		}
	}
	return rows
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func main() {
	var (
		addr    string
		csvPath string
	)
	flag.StringVar(&addr, "addr", ":9205", "listen address")
	flag.StringVar(&csvPath, "csv", "", "write the sample dataset as CSV to this path and exit")
	flag.Parse()

	rows := generateRows()

	if csvPath != "" {
		if err := writeCSV(csvPath, rows); err != nil {
			log.Fatalf("write csv: %v", err)
		}
		fmt.Printf("wrote %d rows to %s\n", len(rows), csvPath)
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/v1/datasets/closing-ranks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"rows": rows})
	})

	log.Printf("dataset mock listening on %s (%d rows)", addr, len(rows))
	log.Fatal(http.ListenAndServe(addr, mux))
}

func writeCSV(path string, rows []datasetRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"institute", "course", "state", "category", "quota", "annual_fee", "stipend_year_1", "bond_years", "bond_penalty", "total_beds", "year", "round", "closing_rank"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Institute, row.Course, row.State, row.Category, row.Quota,
			optFloat(row.AnnualFee), optFloat(row.StipendYear1), optInt(row.BondYears), optFloat(row.BondPenalty), optInt(row.TotalBeds),
			strconv.Itoa(row.Year), strconv.Itoa(row.Round), strconv.Itoa(row.ClosingRank),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
