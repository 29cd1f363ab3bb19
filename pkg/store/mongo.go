package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agentlens/agentlens/pkg/errors"
	"github.com/agentlens/agentlens/pkg/graph"
)

// MongoStore is a MongoDB-backed GraphStore for the server.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and returns a store using the
// "graphs" collection of the named database.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, err, "connecting to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, err, "pinging mongodb")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection("graphs"),
	}, nil
}

// Put stores a graph and returns its assigned id.
func (s *MongoStore) Put(ctx context.Context, name string, g graph.Graph) (*StoredGraph, error) {
	sg := &StoredGraph{
		ID:        uuid.NewString(),
		Name:      name,
		Graph:     g,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.coll.InsertOne(ctx, sg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, err, "inserting graph")
	}
	return sg, nil
}

// Get retrieves a stored graph by id.
func (s *MongoStore) Get(ctx context.Context, id string) (*StoredGraph, error) {
	var sg StoredGraph
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&sg)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeGraphNotFound, "graph %q not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, err, "fetching graph %q", id)
	}
	return &sg, nil
}

// List returns stored graphs ordered by creation time, newest first.
func (s *MongoStore) List(ctx context.Context, limit int) ([]*StoredGraph, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, err, "listing graphs")
	}
	defer cur.Close(ctx)

	var out []*StoredGraph
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, err, "decoding graphs")
	}
	return out, nil
}

// Delete removes a stored graph.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err, "deleting graph %q", id)
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeGraphNotFound, "graph %q not found", id)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements GraphStore.
var _ GraphStore = (*MongoStore)(nil)
