package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"datasync/internal/output"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type mockValuesClient struct {
	mock.Mock
}

func (m *mockValuesClient) FetchValues(ctx context.Context) (ValueRange, error) {
	args := m.Called(ctx)
	return args.Get(0).(ValueRange), args.Error(1)
}

func TestZipRows(t *testing.T) {
	values := [][]any{
		{"name", "", "score"},           // blank header cell -> column_2
		{"alice", "x", float64(12)},     // number stringified
		{"bob"},                         // short row padded with ""
		{"carol", "y", "9", "overflow"}, // extra cell -> column_4
	}

	rows := zipRows(values)

	require.Len(t, rows, 3)
	assert.Equal(t, Row{"name": "alice", "column_2": "x", "score": "12"}, rows[0])
	assert.Equal(t, Row{"name": "bob", "column_2": "", "score": ""}, rows[1])
	assert.Equal(t, Row{"name": "carol", "column_2": "y", "score": "9", "column_4": "overflow"}, rows[2])
}

func TestZipRows_HeaderOnlyOrEmpty(t *testing.T) {
	assert.Empty(t, zipRows(nil))
	assert.Empty(t, zipRows([][]any{{"name", "score"}}))
}

type SheetSuite struct {
	suite.Suite

	client *mockValuesClient

	dir    string
	logBuf *bytes.Buffer
	logger *log.Logger

	svc *Service
}

func TestSheetSuite(t *testing.T) {
	suite.Run(t, new(SheetSuite))
}

func (s *SheetSuite) SetupTest() {
	s.client = &mockValuesClient{}

	s.dir = s.T().TempDir()
	s.logBuf = &bytes.Buffer{}
	s.logger = log.New(s.logBuf, "", 0)

	s.svc = NewService(s.client, output.NewWriter(s.dir, s.logger), Options{}, s.logger)
	s.svc.now = func() time.Time { return time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC) }
}

func (s *SheetSuite) readDocument() document {
	raw, err := os.ReadFile(filepath.Join(s.dir, FileName))
	s.Require().NoError(err)

	var doc document
	s.Require().NoError(json.Unmarshal(raw, &doc))
	return doc
}

func (s *SheetSuite) TestRun_WritesZippedRows() {
	s.client.On("FetchValues", mock.Anything).Return(ValueRange{
		Range: "Sheet1!A1:B3",
		Values: [][]any{
			{"name", "score"},
			{"alice", "10"},
			{"bob", "7"},
		},
	}, nil).Once()

	err := s.svc.Run(context.Background())

	s.Require().NoError(err)
	s.client.AssertExpectations(s.T())

	doc := s.readDocument()
	s.Equal("2024-03-07", doc.Range.Start)
	s.Equal("2024-03-07", doc.Range.End)
	s.Require().Len(doc.Data, 2)
	s.Equal(Row{"name": "alice", "score": "10"}, doc.Data[0])
}

func (s *SheetSuite) TestRun_FetchFailureWritesEmptyDocument() {
	s.client.On("FetchValues", mock.Anything).
		Return(ValueRange{}, errors.New("403")).Once()

	err := s.svc.Run(context.Background())

	s.Require().Error(err)

	doc := s.readDocument()
	s.Require().NotNil(doc.Data)
	s.Empty(doc.Data)
}
