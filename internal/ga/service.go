package ga

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"datasync/internal/aggregate"
	"datasync/internal/archive"
	"datasync/internal/daterange"
	"datasync/internal/event"
	"datasync/internal/output"

	"github.com/google/uuid"
)

const (
	FileName = "analytics.json"

	// notSetValue is the sentinel GA4 reports for rows where the custom
	// dimension was never populated.
	notSetValue = "(not set)"
)

type document struct {
	UpdatedAt time.Time    `json:"updatedAt"`
	Range     output.Range `json:"range"`
	Rows      []MetricRow  `json:"rows"`
}

type Options struct {
	LookbackDays int
	TopN         int
	// AuthorDimensions is the probe order for the account-specific author
	// dimension. The first candidate returning a non-empty value wins.
	AuthorDimensions []string
	// KeepNotSetAuthor keeps "(not set)" author rows instead of dropping them.
	KeepNotSetAuthor bool

	Archive   archive.Repository // optional
	Publisher event.Publisher    // optional
}

type Service struct {
	client ReportClient
	writer *output.Writer
	opts   Options
	logger *log.Logger
	now    func() time.Time
}

func NewService(client ReportClient, writer *output.Writer, opts Options, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		client: client,
		writer: writer,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) Name() string { return "analytics" }

// Run fetches the day-level metrics plus the referrer and author breakdowns
// for the lookback window, merges them per day and writes analytics.json.
// Only the day-level report is required; a failed breakdown degrades to an
// empty list. A failed day-level report still writes an empty document so
// the site never reads a stale or missing file.
func (s *Service) Run(ctx context.Context) error {
	runID := uuid.NewString()
	rng := daterange.Resolve(s.now(), s.opts.LookbackDays)

	s.logger.Printf("analytics: run %s for %s..%s", runID, rng.StartHyphen(), rng.EndHyphen())

	var (
		daily, referrers, authors ReportResponse
		dailyErr, refErr          error
		authorDim                 string
	)

	// Fixed three-way fan-out; branches share nothing and are joined below
	// regardless of individual failure.
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		daily, dailyErr = s.client.RunReport(ctx, s.dailyRequest(rng))
	}()
	go func() {
		defer wg.Done()
		referrers, refErr = s.client.RunReport(ctx, s.referrerRequest(rng))
	}()
	go func() {
		defer wg.Done()
		authors, authorDim = s.probeAuthors(ctx, rng)
	}()
	wg.Wait()

	if dailyErr != nil {
		s.logger.Printf("analytics: day-level report failed: %v", dailyErr)
		s.writeDocument(rng, []MetricRow{})
		return fmt.Errorf("analytics: day-level report: %w", dailyErr)
	}
	if refErr != nil {
		s.logger.Printf("analytics: referrer report failed, continuing without referrers: %v", refErr)
		referrers = ReportResponse{}
	}
	if authorDim != "" {
		s.logger.Printf("analytics: author dimension resolved to %q", authorDim)
	}

	rows := s.buildRows(rng, daily, referrers, authors)

	path, err := s.writeDocument(rng, rows)
	if err != nil {
		return err
	}

	s.archiveRows(ctx, rows)
	s.publish(ctx, runID, path, len(rows))
	return nil
}

func (s *Service) dailyRequest(rng daterange.Range) ReportRequest {
	return ReportRequest{
		DateRanges: []DateRange{{StartDate: rng.StartHyphen(), EndDate: rng.EndHyphen()}},
		Dimensions: []Dimension{{Name: "date"}},
		Metrics: []Metric{
			{Name: "totalUsers"},
			{Name: "newUsers"},
			{Name: "screenPageViews"},
			{Name: "sessions"},
			{Name: "bounceRate"},
			{Name: "averageSessionDuration"},
		},
	}
}

func (s *Service) referrerRequest(rng daterange.Range) ReportRequest {
	return ReportRequest{
		DateRanges: []DateRange{{StartDate: rng.StartHyphen(), EndDate: rng.EndHyphen()}},
		Dimensions: []Dimension{{Name: "date"}, {Name: "sessionSource"}},
		Metrics:    []Metric{{Name: "totalUsers"}},
		Limit:      10000,
	}
}

func (s *Service) authorRequest(rng daterange.Range, dimension string) ReportRequest {
	return ReportRequest{
		DateRanges: []DateRange{{StartDate: rng.StartHyphen(), EndDate: rng.EndHyphen()}},
		Dimensions: []Dimension{{Name: "date"}, {Name: dimension}},
		Metrics:    []Metric{{Name: "totalUsers"}, {Name: "screenPageViews"}},
		Limit:      10000,
	}
}

// probeAuthors tries each configured author dimension in order and accepts
// the first whose report has at least one row with a non-empty dimension
// value. Candidate failures are logged and skipped; exhausting all
// candidates yields an empty response, never an error.
func (s *Service) probeAuthors(ctx context.Context, rng daterange.Range) (ReportResponse, string) {
	for _, dim := range s.opts.AuthorDimensions {
		resp, err := s.client.RunReport(ctx, s.authorRequest(rng, dim))
		if err != nil {
			s.logger.Printf("analytics: author dimension %q failed, trying next: %v", dim, err)
			continue
		}
		if hasNonEmptyDimension(resp, 1) {
			return resp, dim
		}
	}
	return ReportResponse{}, ""
}

func hasNonEmptyDimension(resp ReportResponse, idx int) bool {
	for _, row := range resp.Rows {
		if row.Dim(idx) != "" {
			return true
		}
	}
	return false
}

// buildRows produces one MetricRow per day in the range, gap-filling days
// the report omitted, with top-N referrer and author lists attached.
func (s *Service) buildRows(rng daterange.Range, daily, referrers, authors ReportResponse) []MetricRow {
	base := map[string]MetricRow{}
	for _, row := range daily.Rows {
		day := row.Dim(0)
		if day == "" {
			continue
		}
		base[day] = MetricRow{
			Date:                   day,
			TotalUsers:             parseInt(row.Metric(0)),
			NewUsers:               parseInt(row.Metric(1)),
			Pageviews:              parseInt(row.Metric(2)),
			Sessions:               parseInt(row.Metric(3)),
			BounceRate:             parseFloat(row.Metric(4)),
			AverageSessionDuration: parseFloat(row.Metric(5)),
		}
	}

	refByDay := map[string][]ReferrerEntry{}
	for _, row := range referrers.Rows {
		day, source := row.Dim(0), row.Dim(1)
		if day == "" || source == "" {
			continue
		}
		refByDay[day] = append(refByDay[day], ReferrerEntry{
			Source: source,
			Users:  parseInt(row.Metric(0)),
		})
	}

	authByDay := map[string][]AuthorEntry{}
	for _, row := range authors.Rows {
		day, author := row.Dim(0), row.Dim(1)
		if day == "" || author == "" {
			continue
		}
		if author == notSetValue && !s.opts.KeepNotSetAuthor {
			continue
		}
		authByDay[day] = append(authByDay[day], AuthorEntry{
			Author: author,
			Users:  parseInt(row.Metric(0)),
			Views:  parseInt(row.Metric(1)),
		})
	}

	days := rng.CompactDays()
	refMerged := aggregate.MergeDays(days, refByDay, s.opts.TopN, func(e ReferrerEntry) int { return e.Users })
	authMerged := aggregate.MergeDays(days, authByDay, s.opts.TopN, func(e AuthorEntry) int { return e.Users })

	rows := make([]MetricRow, 0, len(days))
	for _, day := range days {
		row, ok := base[day]
		if !ok {
			row = MetricRow{Date: day}
		}
		row.Referrers = refMerged[day]
		row.Authors = authMerged[day]
		rows = append(rows, row)
	}
	return rows
}

func (s *Service) writeDocument(rng daterange.Range, rows []MetricRow) (string, error) {
	doc := document{
		UpdatedAt: s.now().UTC(),
		Range:     output.RangeOf(rng),
		Rows:      rows,
	}
	path, err := s.writer.Write(FileName, doc)
	if err != nil {
		s.logger.Printf("analytics: write failed: %v", err)
		return "", fmt.Errorf("analytics: write document: %w", err)
	}
	return path, nil
}

func (s *Service) archiveRows(ctx context.Context, rows []MetricRow) {
	if s.opts.Archive == nil {
		return
	}
	fetchedAt := s.now().UTC()
	snaps := make([]*archive.Snapshot, 0, len(rows))
	for _, row := range rows {
		snaps = append(snaps, &archive.Snapshot{
			Dataset:   s.Name(),
			Day:       row.Date,
			FetchedAt: fetchedAt,
			Payload:   row,
		})
	}
	if _, err := s.opts.Archive.SaveSnapshots(ctx, snaps); err != nil {
		s.logger.Printf("analytics: archive failed: %v", err)
	}
}

func (s *Service) publish(ctx context.Context, runID, path string, rows int) {
	if s.opts.Publisher == nil {
		return
	}
	err := s.opts.Publisher.PublishDatasetUpdated(ctx, event.DatasetUpdated{
		Event:     "dataset.updated",
		RunID:     runID,
		Dataset:   s.Name(),
		Path:      path,
		Rows:      rows,
		Timestamp: s.now().UTC(),
	})
	if err != nil {
		s.logger.Printf("analytics: publish failed: %v", err)
	}
}

func parseInt(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseFloat(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}
