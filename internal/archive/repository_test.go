package archive_test

import (
	"context"
	"os"
	"testing"
	"time"

	"datasync/internal/archive"
	"datasync/internal/db"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Integration suite; needs a reachable MongoDB. Set MONGO_TEST_URI to run.
type SnapshotSuite struct {
	suite.Suite

	ctx    context.Context
	client *mongo.Client
	db     *mongo.Database
	col    *mongo.Collection

	repo archive.Repository
}

func TestSnapshotSuite(t *testing.T) {
	if os.Getenv("MONGO_TEST_URI") == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	suite.Run(t, new(SnapshotSuite))
}

func (s *SnapshotSuite) SetupSuite() {
	s.ctx = context.Background()

	client, err := db.ConnectMongo(s.ctx, os.Getenv("MONGO_TEST_URI"))
	s.Require().NoError(err, "failed to connect to mongo")
	s.client = client

	database := client.Database("test_datasync")
	s.db = database
	s.col = database.Collection("snapshots")

	repo, err := archive.NewMongoRepository(database, nil)
	s.Require().NoError(err, "failed to create snapshot repository")
	s.repo = repo
}

func (s *SnapshotSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Disconnect(s.ctx)
	}
}

func (s *SnapshotSuite) SetupTest() {
	_ = s.db.Drop(s.ctx)
}

func (s *SnapshotSuite) TestSaveSnapshotsUpsertsByDatasetAndDay() {
	first := &archive.Snapshot{
		Dataset:   "analytics",
		Day:       "20240301",
		FetchedAt: time.Unix(1700000000, 0),
		Payload:   bson.M{"totalUsers": 10},
	}

	changed, err := s.repo.SaveSnapshots(s.ctx, []*archive.Snapshot{first})
	s.Require().NoError(err)
	s.Require().Equal(1, changed, "first save inserts one document")

	// same day again with a newer payload replaces, not duplicates
	second := &archive.Snapshot{
		Dataset:   "analytics",
		Day:       "20240301",
		FetchedAt: time.Unix(1700000500, 0),
		Payload:   bson.M{"totalUsers": 12},
	}

	changed, err = s.repo.SaveSnapshots(s.ctx, []*archive.Snapshot{second})
	s.Require().NoError(err)
	s.Require().Equal(1, changed)

	count, err := s.col.CountDocuments(s.ctx, bson.M{"dataset": "analytics", "day": "20240301"})
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	var got archive.Snapshot
	err = s.col.FindOne(s.ctx, bson.M{"dataset": "analytics", "day": "20240301"}).Decode(&got)
	s.Require().NoError(err)
	s.Equal(time.Unix(1700000500, 0).Unix(), got.FetchedAt.Unix())

	// a different dataset on the same day is a separate document
	other := &archive.Snapshot{
		Dataset:   "topics",
		Day:       "20240301",
		FetchedAt: time.Unix(1700000500, 0),
		Payload:   bson.M{"count": 3},
	}

	changed, err = s.repo.SaveSnapshots(s.ctx, []*archive.Snapshot{other})
	s.Require().NoError(err)
	s.Require().Equal(1, changed)

	total, err := s.col.CountDocuments(s.ctx, bson.M{})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
}

func (s *SnapshotSuite) TestSaveSnapshotsRejectsMissingKey() {
	_, err := s.repo.SaveSnapshots(s.ctx, []*archive.Snapshot{{Dataset: "analytics"}})
	s.Error(err)
}
