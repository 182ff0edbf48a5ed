package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/valpere/lexitran/internal"
)

// MongoConfig points at an Atlas collection with a vector search index on
// the "embedding" field.
type MongoConfig struct {
	URI           string
	Database      string
	Collection    string
	Index         string
	NumCandidates int
}

func (c *MongoConfig) ApplyDefaults() {
	if c.Database == "" {
		c.Database = "translations"
	}
	if c.Collection == "" {
		c.Collection = "memory"
	}
	if c.Index == "" {
		c.Index = "vector_index"
	}
	if c.NumCandidates == 0 {
		c.NumCandidates = 100
	}
}

// Mongo runs $vectorSearch aggregations against MongoDB Atlas.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	cfg    MongoConfig
}

// mongoRecord is the document written by Add.
type mongoRecord struct {
	ID        string    `bson:"_id,omitempty"`
	English   string    `bson:"english_text"`
	Telugu    string    `bson:"telugu_text"`
	Embedding []float32 `bson:"embedding,omitempty"`
}

// mongoHit is one $vectorSearch result. Collections filled by other
// ingestion tools key documents by ObjectID, so _id is decoded raw.
type mongoHit struct {
	ID      bson.RawValue `bson:"_id"`
	English string        `bson:"english_text"`
	Telugu  string        `bson:"telugu_text"`
	Score   float64       `bson:"score"`
}

func (h mongoHit) pair() internal.ExamplePair {
	return internal.ExamplePair{
		ID:         rawID(h.ID),
		SourceText: h.English,
		TargetText: h.Telugu,
		Score:      float32(h.Score),
	}
}

func rawID(v bson.RawValue) string {
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}
	if s, ok := v.StringValueOK(); ok {
		return s
	}
	if n, ok := v.Int32OK(); ok {
		return strconv.FormatInt(int64(n), 10)
	}
	if n, ok := v.Int64OK(); ok {
		return strconv.FormatInt(n, 10)
	}
	if v.IsZero() {
		return ""
	}
	return v.String()
}

func NewMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("%w: mongo URI required", ErrInvalidConfig)
	}
	cfg.ApplyDefaults()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	return &Mongo{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		cfg:    cfg,
	}, nil
}

func (m *Mongo) Search(ctx context.Context, vector []float32, k int) ([]internal.ExamplePair, error) {
	if k <= 0 {
		return []internal.ExamplePair{}, nil
	}

	numCandidates := m.cfg.NumCandidates
	if numCandidates < k {
		numCandidates = k
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: bson.D{
			{Key: "queryVector", Value: vector},
			{Key: "path", Value: "embedding"},
			{Key: "numCandidates", Value: numCandidates},
			{Key: "limit", Value: k},
			{Key: "index", Value: m.cfg.Index},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "english_text", Value: 1},
			{Key: "telugu_text", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cur, err := m.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	var hits []mongoHit
	if err := cur.All(ctx, &hits); err != nil {
		return nil, fmt.Errorf("decoding vector search results: %w", err)
	}

	pairs := make([]internal.ExamplePair, 0, len(hits))
	for _, h := range hits {
		pairs = append(pairs, h.pair())
	}
	return pairs, nil
}

func (m *Mongo) Add(ctx context.Context, pair internal.ExamplePair) error {
	if len(pair.Embedding) == 0 {
		return fmt.Errorf("example pair has no embedding")
	}
	id := pair.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := m.coll.InsertOne(ctx, mongoRecord{
		ID:        id,
		English:   pair.SourceText,
		Telugu:    pair.TargetText,
		Embedding: pair.Embedding,
	})
	if err != nil {
		return fmt.Errorf("inserting example: %w", err)
	}
	return nil
}

func (m *Mongo) Count(ctx context.Context) (int, error) {
	n, err := m.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("counting examples: %w", err)
	}
	return int(n), nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
