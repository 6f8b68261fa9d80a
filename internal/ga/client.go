package ga

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const DefaultBaseURL = "https://analyticsdata.googleapis.com/v1beta"

type ReportClient interface {
	RunReport(ctx context.Context, req ReportRequest) (ReportResponse, error)
}

type apiClient struct {
	baseURL    string
	propertyID string
	token      string
	http       *http.Client
}

// NewClient returns a ReportClient for one GA4 property. The token is a
// ready-to-use bearer token; acquiring it is the caller's problem.
func NewClient(baseURL, propertyID, token string, httpClient *http.Client) ReportClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &apiClient{
		baseURL:    baseURL,
		propertyID: propertyID,
		token:      token,
		http:       httpClient,
	}
}

func (c *apiClient) RunReport(ctx context.Context, req ReportRequest) (ReportResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return ReportResponse{}, err
	}

	url := fmt.Sprintf("%s/properties/%s:runReport", c.baseURL, c.propertyID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ReportResponse{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ReportResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ReportResponse{}, fmt.Errorf("analytics API returned status %d", resp.StatusCode)
	}

	var out ReportResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ReportResponse{}, fmt.Errorf("decode report response: %w", err)
	}
	return out, nil
}
