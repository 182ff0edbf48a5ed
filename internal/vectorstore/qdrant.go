package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"

	"github.com/valpere/lexitran/internal"
)

const (
	payloadEnglish = "english_text"
	payloadTelugu  = "telugu_text"
)

// QdrantConfig addresses a Qdrant gRPC endpoint, e.g. "localhost:6334" or
// "https://xyz.cloud.qdrant.io:6334".
type QdrantConfig struct {
	URI            string
	APIKey         string
	Collection     string
	VectorSize     uint64
	MaxMessageSize int
}

func (c *QdrantConfig) ApplyDefaults() {
	if c.URI == "" {
		c.URI = "localhost:6334"
	}
	if c.Collection == "" {
		c.Collection = "memory"
	}
	if c.VectorSize == 0 {
		c.VectorSize = 384
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = 16 * 1024 * 1024
	}
}

// Qdrant stores example pairs as points with english_text/telugu_text
// payloads.
type Qdrant struct {
	client     *qdrant.Client
	collection string
}

func NewQdrant(ctx context.Context, cfg QdrantConfig) (*Qdrant, error) {
	cfg.ApplyDefaults()

	host, port, useTLS, err := parseQdrantURI(cfg.URI)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(cfg.MaxMessageSize),
				grpc.MaxCallSendMsgSize(cfg.MaxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating qdrant client: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := client.HealthCheck(checkCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("qdrant health check failed: %w", err)
	}

	exists, err := client.CollectionExists(checkCtx, cfg.Collection)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("checking collection %s: %w", cfg.Collection, err)
	}
	if !exists {
		err := client.CreateCollection(checkCtx, &qdrant.CreateCollection{
			CollectionName: cfg.Collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     cfg.VectorSize,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("creating collection %s: %w", cfg.Collection, err)
		}
	}

	return &Qdrant{client: client, collection: cfg.Collection}, nil
}

func parseQdrantURI(uri string) (host string, port int, useTLS bool, err error) {
	if !strings.Contains(uri, "://") {
		uri = "grpc://" + uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", 0, false, fmt.Errorf("%w: qdrant URI %q: %v", ErrInvalidConfig, uri, err)
	}
	host = u.Hostname()
	if host == "" {
		return "", 0, false, fmt.Errorf("%w: qdrant URI %q has no host", ErrInvalidConfig, uri)
	}
	port = 6334
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return "", 0, false, fmt.Errorf("%w: invalid qdrant port %q", ErrInvalidConfig, p)
		}
	}
	return host, port, u.Scheme == "https", nil
}

func (q *Qdrant) Search(ctx context.Context, vector []float32, k int) ([]internal.ExamplePair, error) {
	if k <= 0 {
		return []internal.ExamplePair{}, nil
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("searching collection %s: %w", q.collection, err)
	}

	pairs := make([]internal.ExamplePair, 0, len(points))
	for _, p := range points {
		pairs = append(pairs, internal.ExamplePair{
			ID:         p.GetId().GetUuid(),
			SourceText: p.GetPayload()[payloadEnglish].GetStringValue(),
			TargetText: p.GetPayload()[payloadTelugu].GetStringValue(),
			Score:      p.GetScore(),
		})
	}
	return pairs, nil
}

func (q *Qdrant) Add(ctx context.Context, pair internal.ExamplePair) error {
	if len(pair.Embedding) == 0 {
		return fmt.Errorf("example pair has no embedding")
	}

	id := pair.ID
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.New().String()
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDUUID(id),
			Vectors: qdrant.NewVectors(pair.Embedding...),
			Payload: map[string]*qdrant.Value{
				payloadEnglish: {Kind: &qdrant.Value_StringValue{StringValue: pair.SourceText}},
				payloadTelugu:  {Kind: &qdrant.Value_StringValue{StringValue: pair.TargetText}},
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("upserting example: %w", err)
	}
	return nil
}

func (q *Qdrant) Count(ctx context.Context) (int, error) {
	exact := true
	n, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}
	return int(n), nil
}

func (q *Qdrant) Close() error {
	return q.client.Close()
}
