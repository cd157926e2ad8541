package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/topolens/topolens/pkg/errors"
	"github.com/topolens/topolens/pkg/inventory"
)

const snapshotCollection = "snapshots"

// MongoStore is a MongoDB-backed snapshot store for server deployments.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection with a ping.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to mongodb")
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "ping mongodb")
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(snapshotCollection),
	}, nil
}

// Save stores a snapshot under a fresh uuid.
func (s *MongoStore) Save(ctx context.Context, name string, snap inventory.Snapshot) (*Record, error) {
	rec := &Record{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		VMCount:   len(snap.VMs),
		HostCount: len(snap.Hosts),
		Snapshot:  snap,
	}

	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "insert snapshot %s", rec.ID)
	}
	return rec, nil
}

// Get retrieves a snapshot by id.
func (s *MongoStore) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeSnapshotNotFound, "snapshot %q not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "load snapshot %s", id)
	}
	return &rec, nil
}

// List returns metadata for all stored snapshots, newest first.
func (s *MongoStore) List(ctx context.Context) ([]Record, error) {
	opts := options.Find().
		SetProjection(bson.M{"snapshot": 0}).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list snapshots")
	}
	defer cur.Close(ctx)

	var out []Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decode snapshot list")
	}
	return out, nil
}

// Delete removes a snapshot.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete snapshot %s", id)
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeSnapshotNotFound, "snapshot %q not found", id)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
