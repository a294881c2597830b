package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/admitstack/admit-engine/internal/models"
)

// RemoteDatasetClient pulls the long-format closing-rank table from a
// dataset service at startup, as an alternative to a local CSV. The fetched
// rows feed the same index build; the engine itself never performs I/O after
// startup.
type RemoteDatasetClient struct {
	baseURL     string
	datasetPath string
	httpClient  *http.Client
}

// NewRemoteDatasetClient constructs a client targeting the configured
// dataset service.
func NewRemoteDatasetClient(baseURL, datasetPath string, timeout time.Duration) *RemoteDatasetClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteDatasetClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		datasetPath: datasetPath,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type datasetRowPayload struct {
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

// FetchDataset retrieves all dataset rows. Individually invalid rows are
// skipped and counted in the report; an unreachable service or an empty
// dataset is a DataLoadError.
func (c *RemoteDatasetClient) FetchDataset(ctx context.Context) ([]DatasetRow, LoadReport, error) {
	if c == nil || c.baseURL == "" {
		return nil, LoadReport{}, fmt.Errorf("%w: dataset service not configured", models.ErrDataLoad)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.datasetURL(), nil)
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("%w: %v", models.ErrDataLoad, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("%w: dataset request failed: %v", models.ErrDataLoad, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, LoadReport{}, fmt.Errorf("%w: dataset service returned %s", models.ErrDataLoad, resp.Status)
	}

	var payload struct {
		Rows []datasetRowPayload `json:"rows"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, LoadReport{}, fmt.Errorf("%w: decode dataset: %v", models.ErrDataLoad, err)
	}

	var (
		rows   []DatasetRow
		report LoadReport
	)
	for _, raw := range payload.Rows {
		row, ok := rowFromPayload(raw)
		if !ok {
			report.Skipped++
			continue
		}
		rows = append(rows, row)
		report.Accepted++
	}

	if len(rows) == 0 {
		return nil, report, fmt.Errorf("%w: dataset service returned no valid rows", models.ErrDataLoad)
	}
	return rows, report, nil
}

func rowFromPayload(raw datasetRowPayload) (DatasetRow, bool) {
	if raw.Institute == "" || raw.Course == "" || raw.Category == "" || raw.Quota == "" {
		return DatasetRow{}, false
	}
	if raw.Year < 1900 || raw.ClosingRank <= 0 || raw.Round < 0 {
		return DatasetRow{}, false
	}
	return DatasetRow{
		Key: models.OfferKey{
			Institute: raw.Institute,
			Course:    raw.Course,
			Category:  raw.Category,
			Quota:     raw.Quota,
		},
		Details: models.OfferDetails{
			State:        raw.State,
			AnnualFee:    raw.AnnualFee,
			StipendYear1: raw.StipendYear1,
			BondYears:    raw.BondYears,
			BondPenalty:  raw.BondPenalty,
			TotalBeds:    raw.TotalBeds,
		},
		Year:        raw.Year,
		Round:       raw.Round,
		ClosingRank: raw.ClosingRank,
	}, true
}

func (c *RemoteDatasetClient) datasetURL() string {
	cleaned := "/" + strings.TrimLeft(c.datasetPath, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}
