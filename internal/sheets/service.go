package sheets

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"datasync/internal/archive"
	"datasync/internal/daterange"
	"datasync/internal/event"
	"datasync/internal/output"

	"github.com/google/uuid"
)

const FileName = "sheet.json"

// Row is one data row keyed by the header row. Header cells that are blank
// or missing fall back to a positional column_N placeholder.
type Row map[string]string

type document struct {
	UpdatedAt time.Time    `json:"updatedAt"`
	Range     output.Range `json:"range"`
	Data      []Row        `json:"data"`
}

type Options struct {
	Archive   archive.Repository // optional
	Publisher event.Publisher    // optional
}

type Service struct {
	client ValuesClient
	writer *output.Writer
	opts   Options
	logger *log.Logger
	now    func() time.Time
}

func NewService(client ValuesClient, writer *output.Writer, opts Options, logger *log.Logger) *Service {
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

func (s *Service) Name() string { return "sheet" }

func (s *Service) Run(ctx context.Context) error {
	runID := uuid.NewString()
	rng := daterange.Resolve(s.now(), 1)

	s.logger.Printf("sheet: run %s", runID)

	vr, err := s.client.FetchValues(ctx)
	if err != nil {
		s.logger.Printf("sheet: values fetch failed: %v", err)
		s.writeDocument(rng, []Row{})
		return fmt.Errorf("sheet: values fetch: %w", err)
	}

	rows := zipRows(vr.Values)

	path, werr := s.writeDocument(rng, rows)
	if werr != nil {
		return werr
	}

	s.archiveRows(ctx, rng, rows)
	s.publish(ctx, runID, path, len(rows))
	return nil
}

// zipRows pairs the header row with every data row. Every row carries every
// header key; cells the source row is missing come through as "".
func zipRows(values [][]any) []Row {
	if len(values) < 2 {
		return []Row{}
	}

	header := make([]string, len(values[0]))
	for i, cell := range values[0] {
		name := strings.TrimSpace(stringify(cell))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		header[i] = name
	}

	rows := make([]Row, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := Row{}
		for i, name := range header {
			if i < len(raw) {
				row[name] = stringify(raw[i])
			} else {
				row[name] = ""
			}
		}
		// cells beyond the header still get a positional key
		for i := len(header); i < len(raw); i++ {
			row[fmt.Sprintf("column_%d", i+1)] = stringify(raw[i])
		}
		rows = append(rows, row)
	}
	return rows
}

func stringify(cell any) string {
	if cell == nil {
		return ""
	}
	if s, ok := cell.(string); ok {
		return s
	}
	return fmt.Sprint(cell)
}

func (s *Service) writeDocument(rng daterange.Range, rows []Row) (string, error) {
	doc := document{
		UpdatedAt: s.now().UTC(),
		Range:     output.RangeOf(rng),
		Data:      rows,
	}
	path, err := s.writer.Write(FileName, doc)
	if err != nil {
		s.logger.Printf("sheet: write failed: %v", err)
		return "", fmt.Errorf("sheet: write document: %w", err)
	}
	return path, nil
}

func (s *Service) archiveRows(ctx context.Context, rng daterange.Range, rows []Row) {
	if s.opts.Archive == nil {
		return
	}
	snap := &archive.Snapshot{
		Dataset:   s.Name(),
		Day:       daterange.Compact(rng.End),
		FetchedAt: s.now().UTC(),
		Payload:   rows,
	}
	if _, err := s.opts.Archive.SaveSnapshots(ctx, []*archive.Snapshot{snap}); err != nil {
		s.logger.Printf("sheet: archive failed: %v", err)
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
		s.logger.Printf("sheet: publish failed: %v", err)
	}
}
