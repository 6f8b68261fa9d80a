package topics

import (
	"context"
	"fmt"
	"log"
	"time"

	"datasync/internal/aggregate"
	"datasync/internal/archive"
	"datasync/internal/daterange"
	"datasync/internal/event"
	"datasync/internal/output"
	"datasync/internal/report"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const (
	FileName = "topics.json"

	// AbsoluteMaxPages caps pagination regardless of configuration.
	AbsoluteMaxPages = 500
)

// TopicSummary aggregates one tag over the fetched batch.
type TopicSummary struct {
	Name         string   `json:"name"`
	Count        int      `json:"count"`
	SampleTitles []string `json:"sampleTitles"`
	Sections     []string `json:"sections"`
}

type document struct {
	UpdatedAt time.Time      `json:"updatedAt"`
	Range     output.Range   `json:"range"`
	Topics    []TopicSummary `json:"topics"`
}

type Options struct {
	PerPage      int
	MaxPages     int // -1 to fetch all pages
	LookbackDays int
	SampleTitles int    // titles kept per topic, default 3
	ListKey      string // explicit list key tried before the fallback order

	Archive   archive.Repository // optional
	Publisher event.Publisher    // optional
}

type Service struct {
	client PostsClient
	writer *output.Writer
	opts   Options
	logger *log.Logger
	now    func() time.Time
}

func NewService(client PostsClient, writer *output.Writer, opts Options, logger *log.Logger) *Service {
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

func (s *Service) Name() string { return "topics" }

// Run pages through the posts published inside the lookback window,
// normalizes them and writes the per-tag summary. A failure on the first
// page is fatal (an empty document is still written); a failure on a later
// page keeps whatever was fetched so far.
func (s *Service) Run(ctx context.Context) error {
	runID := uuid.NewString()
	rng := daterange.Resolve(s.now(), s.opts.LookbackDays)

	s.logger.Printf("topics: run %s for %s..%s", runID, rng.StartHyphen(), rng.EndHyphen())

	articles, err := s.fetchArticles(ctx, rng)
	if err != nil {
		s.logger.Printf("topics: posts fetch failed: %v", err)
		s.writeDocument(rng, []TopicSummary{})
		return fmt.Errorf("topics: posts fetch: %w", err)
	}

	topics := s.buildTopics(articles)

	path, werr := s.writeDocument(rng, topics)
	if werr != nil {
		return werr
	}

	s.archiveTopics(ctx, rng, topics)
	s.publish(ctx, runID, path, len(topics))
	return nil
}

func (s *Service) fetchArticles(ctx context.Context, rng daterange.Range) ([]Article, error) {
	page := 1                     // WordPress pages are 1-based
	emptyCount := 0               // consecutive empty pages
	seen := make(map[string]bool) // dedupe across overlapping pages
	var articles []Article

	for {
		pg, err := s.client.FetchPage(ctx, page, s.opts.PerPage, rng.Start)
		if err == nil && !gjson.ValidBytes(pg.Body) {
			// an HTML error page behind a 200 is a transport failure, not an
			// empty listing
			err = fmt.Errorf("page %d response is not valid JSON", page)
		}
		if err != nil {
			if page == 1 {
				return nil, err
			}
			s.logger.Printf("topics: page %d fetch failed, keeping %d articles: %v", page, len(articles), err)
			return articles, nil
		}

		items := report.ResolveList(pg.Body, s.opts.ListKey)

		if len(items) == 0 {
			emptyCount++
			if emptyCount >= 3 {
				s.logger.Println("topics: no content for 3 pages — stopping")
				return articles, nil
			}
		} else {
			emptyCount = 0
		}

		for _, item := range items {
			art := mapArticle(item)
			key := art.Slug
			if key == "" {
				key = art.Title
			}
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			articles = append(articles, art)
		}

		page++

		if page > AbsoluteMaxPages {
			s.logger.Printf("topics: safety stop: %d pages scanned", AbsoluteMaxPages)
			return articles, nil
		}
		if s.opts.MaxPages >= 0 && page > s.opts.MaxPages {
			s.logger.Printf("topics: reached configured page limit %d", s.opts.MaxPages)
			return articles, nil
		}
		if pg.TotalPages > 0 && page > pg.TotalPages {
			s.logger.Printf("topics: reached reported last page %d", pg.TotalPages)
			return articles, nil
		}
	}
}

func (s *Service) buildTopics(articles []Article) []TopicSummary {
	records := make([]aggregate.Record, 0, len(articles))
	for _, art := range articles {
		records = append(records, aggregate.Record{
			Keys:      art.Tags,
			Sample:    art.Title,
			SetMember: art.Section,
		})
	}

	summaries := aggregate.Fold(records, aggregate.FoldOptions{SampleLimit: s.opts.SampleTitles})

	topics := make([]TopicSummary, 0, len(summaries))
	for _, sum := range summaries {
		topics = append(topics, TopicSummary{
			Name:         sum.Key,
			Count:        sum.Count,
			SampleTitles: sum.Samples,
			Sections:     sum.Members,
		})
	}
	return topics
}

func (s *Service) writeDocument(rng daterange.Range, topics []TopicSummary) (string, error) {
	doc := document{
		UpdatedAt: s.now().UTC(),
		Range:     output.RangeOf(rng),
		Topics:    topics,
	}
	path, err := s.writer.Write(FileName, doc)
	if err != nil {
		s.logger.Printf("topics: write failed: %v", err)
		return "", fmt.Errorf("topics: write document: %w", err)
	}
	return path, nil
}

func (s *Service) archiveTopics(ctx context.Context, rng daterange.Range, topics []TopicSummary) {
	if s.opts.Archive == nil {
		return
	}
	snap := &archive.Snapshot{
		Dataset:   s.Name(),
		Day:       daterange.Compact(rng.End),
		FetchedAt: s.now().UTC(),
		Payload:   topics,
	}
	if _, err := s.opts.Archive.SaveSnapshots(ctx, []*archive.Snapshot{snap}); err != nil {
		s.logger.Printf("topics: archive failed: %v", err)
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
		s.logger.Printf("topics: publish failed: %v", err)
	}
}
