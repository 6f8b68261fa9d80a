// Package archive keeps a rolling history of pipeline output in MongoDB.
// The JSON documents only ever cover the current window; snapshots preserve
// older days so the series can be rebuilt later.
package archive

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Snapshot is one archived unit of pipeline output: a single day's row for
// day-keyed datasets, or the whole batch (Day = range end) for the others.
type Snapshot struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Dataset    string             `bson:"dataset"`
	Day        string             `bson:"day"` // compact YYYYMMDD
	FetchedAt  time.Time          `bson:"fetchedAt"`
	Payload    any                `bson:"payload"`
	CreatedAt  time.Time          `bson:"createdAt"`
	ModifiedAt time.Time          `bson:"modifiedAt"`
}

type Repository interface {
	SaveSnapshots(ctx context.Context, snaps []*Snapshot) (int, error)
}

type mongoRepository struct {
	col    *mongo.Collection
	logger *log.Logger
}

func NewMongoRepository(db *mongo.Database, logger *log.Logger) (Repository, error) {
	col := db.Collection("snapshots")

	repo := &mongoRepository{
		col:    col,
		logger: logger,
	}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// ensureIndexes guarantees one snapshot per (dataset, day) and keeps the
// collection scannable in fetch order.
func (r *mongoRepository) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "dataset", Value: 1},
				{Key: "day", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "fetchedAt", Value: 1}},
		},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)

	if err != nil && r.logger != nil {
		r.logger.Printf("failed to create indexes: %v", err)
	}
	return err
}

// SaveSnapshots upserts each snapshot keyed by (dataset, day). A later fetch
// of the same day replaces the earlier payload. Returns how many documents
// were inserted or modified.
func (r *mongoRepository) SaveSnapshots(ctx context.Context, snaps []*Snapshot) (int, error) {
	now := time.Now()
	changed := 0

	for _, s := range snaps {
		if s.Dataset == "" || s.Day == "" {
			return changed, fmt.Errorf("snapshot missing dataset or day")
		}

		res, err := r.col.UpdateOne(
			ctx,
			bson.M{"dataset": s.Dataset, "day": s.Day},
			bson.M{
				"$set": bson.M{
					"fetchedAt":  s.FetchedAt,
					"payload":    s.Payload,
					"modifiedAt": now,
				},
				"$setOnInsert": bson.M{"createdAt": now},
			},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return changed, fmt.Errorf("upsert snapshot %s/%s: %w", s.Dataset, s.Day, err)
		}
		if res.UpsertedCount > 0 || res.ModifiedCount > 0 {
			changed++
		}
	}

	if r.logger != nil {
		r.logger.Printf("archived %d of %d snapshots", changed, len(snaps))
	}
	return changed, nil
}
