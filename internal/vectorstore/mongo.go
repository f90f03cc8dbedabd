package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/x402rag/gateway/internal/config"
)

// MongoVectorIndex backs the Index boundary with MongoDB. When Atlas
// Vector Search is configured it runs the $vectorSearch aggregation
// stage; otherwise it falls back to fetching candidate documents and
// scoring them client-side with cosine similarity.
type MongoVectorIndex struct {
	client     *mongo.Client
	collection *mongo.Collection
	useAtlas   bool
	searchIdx  string
}

type mongoChunkDoc struct {
	ID        string    `bson:"_id"`
	Text      string    `bson:"text"`
	Embedding []float64 `bson:"embedding"`
	DocID     string    `bson:"doc_id"`
	DocType   string    `bson:"doc_type"`
	Source    string    `bson:"source"`
	ChunkIdx  int       `bson:"chunk_idx"`
	PriceBase int64     `bson:"price_base"`
}

// NewMongoVectorIndex connects to MongoDB and ensures the metadata
// indexes used by GetByIDs/Search filters exist.
func NewMongoVectorIndex(cfg config.MongoConfig) (*MongoVectorIndex, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	collection := client.Database(cfg.Database).Collection(cfg.Collection)
	idx := &MongoVectorIndex{
		client:     client,
		collection: collection,
		useAtlas:   cfg.UseAtlasSearch,
		searchIdx:  cfg.SearchIndex,
	}

	if err := idx.createIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return idx, nil
}

func (m *MongoVectorIndex) createIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "doc_id", Value: 1}}},
		{Keys: bson.D{{Key: "doc_type", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create chunk indexes: %w", err)
	}
	return nil
}

func (m *MongoVectorIndex) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	var docs []interface{}
	for _, c := range chunks {
		docs = append(docs, mongoChunkDoc{
			ID:        c.ID.String(),
			Text:      c.Text,
			Embedding: c.Embedding,
			DocID:     c.DocID,
			DocType:   c.DocType,
			Source:    c.Source,
			ChunkIdx:  c.ChunkIdx,
			PriceBase: c.PriceBase,
		})
	}

	models := make([]mongo.WriteModel, len(docs))
	for i, d := range docs {
		doc := d.(mongoChunkDoc)
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: doc.ID}}).
			SetReplacement(doc).
			SetUpsert(true)
	}
	_, err := m.collection.BulkWrite(ctx, models)
	if err != nil {
		return fmt.Errorf("upsert chunks: %w", err)
	}
	return nil
}

func (m *MongoVectorIndex) Search(ctx context.Context, queryVector []float64, k int, filter Filter) ([]Chunk, error) {
	if m.useAtlas {
		return m.searchAtlas(ctx, queryVector, k, filter)
	}
	return m.searchClientSide(ctx, queryVector, k, filter)
}

func (m *MongoVectorIndex) searchAtlas(ctx context.Context, queryVector []float64, k int, filter Filter) ([]Chunk, error) {
	vectorStage := bson.D{
		{Key: "index", Value: m.searchIdx},
		{Key: "path", Value: "embedding"},
		{Key: "queryVector", Value: queryVector},
		{Key: "numCandidates", Value: k * 10},
		{Key: "limit", Value: k},
	}
	atlasFilter := bson.D{}
	if filter.DocID != "" {
		atlasFilter = append(atlasFilter, bson.E{Key: "doc_id", Value: filter.DocID})
	}
	if filter.DocType != "" {
		atlasFilter = append(atlasFilter, bson.E{Key: "doc_type", Value: filter.DocType})
	}
	if len(atlasFilter) > 0 {
		vectorStage = append(vectorStage, bson.E{Key: "filter", Value: atlasFilter})
	}

	cursor, err := m.collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$vectorSearch", Value: vectorStage}},
	})
	if err != nil {
		return nil, fmt.Errorf("atlas vector search: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeChunkCursor(ctx, cursor)
}

func (m *MongoVectorIndex) searchClientSide(ctx context.Context, queryVector []float64, k int, filter Filter) ([]Chunk, error) {
	query := bson.D{}
	if filter.DocID != "" {
		query = append(query, bson.E{Key: "doc_id", Value: filter.DocID})
	}
	if filter.DocType != "" {
		query = append(query, bson.E{Key: "doc_type", Value: filter.DocType})
	}

	cursor, err := m.collection.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find chunks: %w", err)
	}
	defer cursor.Close(ctx)

	candidates, err := decodeChunkCursor(ctx, cursor)
	if err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		return cosineSimilarity(queryVector, candidates[i].Embedding) > cosineSimilarity(queryVector, candidates[j].Embedding)
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k], nil
}

func (m *MongoVectorIndex) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	cursor, err := m.collection.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: strIDs}}}})
	if err != nil {
		return nil, fmt.Errorf("find chunks by id: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeChunkCursor(ctx, cursor)
}

func decodeChunkCursor(ctx context.Context, cursor *mongo.Cursor) ([]Chunk, error) {
	var docs []mongoChunkDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode chunk documents: %w", err)
	}
	chunks := make([]Chunk, len(docs))
	for i, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			return nil, fmt.Errorf("parse chunk id %q: %w", d.ID, err)
		}
		chunks[i] = Chunk{
			ID:        id,
			Text:      d.Text,
			Embedding: d.Embedding,
			DocID:     d.DocID,
			DocType:   d.DocType,
			Source:    d.Source,
			ChunkIdx:  d.ChunkIdx,
			PriceBase: d.PriceBase,
		}
	}
	return chunks, nil
}
