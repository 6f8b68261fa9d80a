package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const DefaultBaseURL = "https://sheets.googleapis.com/v4"

// ValueRange mirrors the spreadsheets.values.get response. Cells arrive as
// strings, numbers or bools depending on the sheet's formatting.
type ValueRange struct {
	Range          string  `json:"range"`
	MajorDimension string  `json:"majorDimension"`
	Values         [][]any `json:"values"`
}

type ValuesClient interface {
	FetchValues(ctx context.Context) (ValueRange, error)
}

type apiClient struct {
	baseURL   string
	sheetID   string
	readRange string
	apiKey    string
	http      *http.Client
}

func NewClient(baseURL, sheetID, readRange, apiKey string, httpClient *http.Client) ValuesClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &apiClient{
		baseURL:   baseURL,
		sheetID:   sheetID,
		readRange: readRange,
		apiKey:    apiKey,
		http:      httpClient,
	}
}

func (c *apiClient) FetchValues(ctx context.Context) (ValueRange, error) {
	u := fmt.Sprintf("%s/spreadsheets/%s/values/%s?key=%s",
		c.baseURL, c.sheetID, url.PathEscape(c.readRange), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return ValueRange{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return ValueRange{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ValueRange{}, fmt.Errorf("sheets API returned status %d", resp.StatusCode)
	}

	var out ValueRange
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ValueRange{}, fmt.Errorf("decode values response: %w", err)
	}
	return out, nil
}
