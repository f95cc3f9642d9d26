package store

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/wattmonk/ragchat/internal/models"
)

// payloadContentKey is the payload field holding the chunk text; every other
// payload field is treated as metadata.
const payloadContentKey = "content"

// scrollPageSize is the page size used internally by GetAll.
const scrollPageSize = 256

// QdrantStore owns the gRPC connection to Qdrant and hands out per-corpus
// collection handles.
type QdrantStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	dimensions  int
}

// NewQdrantStore connects to Qdrant at the given gRPC address.
func NewQdrantStore(addr string, dimensions int) (*QdrantStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("store: dial qdrant %s: %w", addr, err)
	}
	return &QdrantStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		dimensions:  dimensions,
	}, nil
}

// Close closes the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	return s.conn.Close()
}

// Collections ensures both corpus collections exist (create-if-missing) and
// returns handles to them.
func (s *QdrantStore) Collections(ctx context.Context) (*Collections, error) {
	for _, name := range []string{models.NECCollection, models.WattmonkCollection} {
		if err := s.ensureCollection(ctx, name); err != nil {
			return nil, err
		}
	}
	return &Collections{
		NEC:      &qdrantCollection{store: s, name: models.NECCollection},
		Wattmonk: &qdrantCollection{store: s, name: models.WattmonkCollection},
	}, nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context, name string) error {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("store: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == name {
			return nil
		}
	}
	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(s.dimensions),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("store: create collection %s: %w", name, err)
	}
	return nil
}

// qdrantCollection implements Collection on one Qdrant collection.
type qdrantCollection struct {
	store *QdrantStore
	name  string
}

// Add upserts one record. The record ID must be a UUID (chunk IDs are).
func (c *qdrantCollection) Add(ctx context.Context, rec Record) error {
	payload := make(map[string]*pb.Value, len(rec.Metadata)+1)
	payload[payloadContentKey] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: rec.Content}}
	for k, v := range rec.Metadata {
		payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
	}
	wait := true
	_, err := c.store.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: c.name,
		Wait:           &wait,
		Points: []*pb.PointStruct{{
			Id: &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: rec.ID}},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: rec.Vector}},
			},
			Payload: payload,
		}},
	})
	if err != nil {
		return fmt.Errorf("store: upsert point %s: %w", rec.ID, err)
	}
	return nil
}

// Query performs k-NN search and converts cosine similarity to a distance
// (1 - score) so lower means more relevant.
func (c *qdrantCollection) Query(ctx context.Context, vector []float32, k int) ([]Result, error) {
	resp, err := c.store.points.Search(ctx, &pb.SearchPoints{
		CollectionName: c.name,
		Vector:         vector,
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("store: search %s: %w", c.name, err)
	}
	results := make([]Result, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		content, meta := splitPayload(p.GetPayload())
		results = append(results, Result{
			ID:       p.GetId().GetUuid(),
			Content:  content,
			Metadata: meta,
			Distance: 1 - float64(p.GetScore()),
		})
	}
	return results, nil
}

// GetAll scrolls the whole collection. Linear in collection size.
func (c *qdrantCollection) GetAll(ctx context.Context) ([]Record, error) {
	var out []Record
	limit := uint32(scrollPageSize)
	var offset *pb.PointId
	for {
		req := &pb.ScrollPoints{
			CollectionName: c.name,
			Limit:          &limit,
			Offset:         offset,
			WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		}
		resp, err := c.store.points.Scroll(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("store: scroll %s: %w", c.name, err)
		}
		for _, p := range resp.GetResult() {
			content, meta := splitPayload(p.GetPayload())
			out = append(out, Record{
				ID:       p.GetId().GetUuid(),
				Content:  content,
				Metadata: meta,
			})
		}
		offset = resp.GetNextPageOffset()
		if offset == nil {
			return out, nil
		}
	}
}

// Count returns the exact number of points in the collection.
func (c *qdrantCollection) Count(ctx context.Context) (int64, error) {
	exact := true
	resp, err := c.store.points.Count(ctx, &pb.CountPoints{
		CollectionName: c.name,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("store: count %s: %w", c.name, err)
	}
	return int64(resp.GetResult().GetCount()), nil
}

func splitPayload(payload map[string]*pb.Value) (string, map[string]string) {
	var content string
	meta := make(map[string]string, len(payload))
	for k, v := range payload {
		if k == payloadContentKey {
			content = v.GetStringValue()
			continue
		}
		meta[k] = v.GetStringValue()
	}
	return content, meta
}
