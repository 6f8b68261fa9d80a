package ga

// Request/response shapes for the GA4 Data API runReport method. Only the
// fields the pipelines read are modelled.

type ReportRequest struct {
	DateRanges []DateRange `json:"dateRanges"`
	Dimensions []Dimension `json:"dimensions"`
	Metrics    []Metric    `json:"metrics"`
	Limit      int64       `json:"limit,omitempty"`
}

type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type Dimension struct {
	Name string `json:"name"`
}

type Metric struct {
	Name string `json:"name"`
}

type ReportResponse struct {
	Rows     []ReportRow `json:"rows"`
	RowCount int         `json:"rowCount"`
}

type ReportRow struct {
	DimensionValues []ReportValue `json:"dimensionValues"`
	MetricValues    []ReportValue `json:"metricValues"`
}

// ReportValue is always a string on the wire, even for numeric metrics.
type ReportValue struct {
	Value string `json:"value"`
}

// Dim returns the i-th dimension value or "" when the row is short.
func (r ReportRow) Dim(i int) string {
	if i < 0 || i >= len(r.DimensionValues) {
		return ""
	}
	return r.DimensionValues[i].Value
}

// Metric returns the i-th metric value or "" when the row is short.
func (r ReportRow) Metric(i int) string {
	if i < 0 || i >= len(r.MetricValues) {
		return ""
	}
	return r.MetricValues[i].Value
}

// Output document row shapes.

type MetricRow struct {
	Date                   string          `json:"date"` // compact YYYYMMDD
	TotalUsers             int             `json:"totalUsers"`
	NewUsers               int             `json:"newUsers"`
	Pageviews              int             `json:"pageviews"`
	Sessions               int             `json:"sessions"`
	BounceRate             float64         `json:"bounceRate"`
	AverageSessionDuration float64         `json:"averageSessionDuration"`
	Referrers              []ReferrerEntry `json:"referrers"`
	Authors                []AuthorEntry   `json:"authors"`
}

type ReferrerEntry struct {
	Source string `json:"source"`
	Users  int    `json:"users"`
}

type AuthorEntry struct {
	Author string `json:"author"`
	Users  int    `json:"users"`
	Views  int    `json:"views"`
}
