// Package weaviate adapts the Weaviate client to the vector store contract:
// schema management, entry writes, nearest-neighbor search, and the batch
// operations a corpus rebuild needs.
package weaviate

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"folio/internal/chunk"
	"folio/internal/vector"
)

type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

// EnsureSchema creates or migrates the CorpusChunk class.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return vector.EnsureSchema(ctx, s)
}

func (s *Store) ClassExists(ctx context.Context, className string) (bool, error) {
	return s.client.Schema().ClassExistenceChecker().WithClassName(className).Do(ctx)
}

func (s *Store) CreateClass(ctx context.Context, class *models.Class) error {
	return s.client.Schema().ClassCreator().WithClass(class).Do(ctx)
}

func (s *Store) GetClass(ctx context.Context, className string) (*models.Class, error) {
	return s.client.Schema().ClassGetter().WithClassName(className).Do(ctx)
}

func (s *Store) AddProperty(ctx context.Context, className string, property *models.Property) error {
	return s.client.Schema().PropertyCreator().WithClassName(className).WithProperty(property).Do(ctx)
}

func (s *Store) Put(ctx context.Context, e vector.Entry) error {
	_, err := s.client.Data().Creator().
		WithClassName(vector.ClassName).
		WithProperties(map[string]interface{}{
			"content":  e.Content,
			"caption":  e.Caption,
			"corpusId": e.CorpusID,
			"chunkId":  e.ChunkID,
			"source":   e.Source,
			"page":     e.Page,
			"kind":     string(e.Kind),
			"labelKey": e.LabelKey,
		}).
		WithVector(e.Vector).
		Do(ctx)
	return err
}

// Search ranks entries of one corpus by vector distance, best first. A
// non-empty kind narrows the candidate set before ranking.
func (s *Store) Search(ctx context.Context, vec []float32, corpusID string, kind chunk.Kind, limit int) ([]vector.Hit, error) {
	near := s.client.GraphQL().NearVectorArgBuilder().WithVector(vec)

	operands := []*filters.WhereBuilder{
		filters.Where().
			WithPath([]string{"corpusId"}).
			WithOperator(filters.Equal).
			WithValueString(corpusID),
	}
	if kind != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"kind"}).
			WithOperator(filters.Equal).
			WithValueString(string(kind)))
	}
	where := filters.Where().
		WithOperator(filters.And).
		WithOperands(operands)

	fields := []graphql.Field{
		{Name: "chunkId"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithNearVector(near).
		WithWhere(where).
		WithLimit(limit).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var hits []vector.Hit
	if data, ok := res.Data["Get"].(map[string]interface{}); ok {
		if rows, ok := data[vector.ClassName].([]interface{}); ok {
			for _, row := range rows {
				props, ok := row.(map[string]interface{})
				if !ok {
					continue
				}
				var hit vector.Hit
				if id, ok := props["chunkId"].(float64); ok {
					hit.ChunkID = int64(id)
				}
				if additional, ok := props["_additional"].(map[string]interface{}); ok {
					// distance arrives as float64 from some server versions
					// and as a string from others
					switch d := additional["distance"].(type) {
					case float64:
						hit.Score = 1 - d
					case string:
						var f float64
						fmt.Sscanf(d, "%f", &f)
						hit.Score = 1 - f
					}
				}
				hits = append(hits, hit)
			}
		}
	}
	return hits, nil
}

// DeleteByCorpus removes every entry of one corpus; used for full rebuilds
// and corpus deletion.
func (s *Store) DeleteByCorpus(ctx context.Context, corpusID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassName).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithPath([]string{"corpusId"}).
			WithOperator(filters.Equal).
			WithValueString(corpusID)).
		Do(ctx)
	return err
}

// Count returns the number of indexed entries across all corpora.
func (s *Store) Count(ctx context.Context) (int, error) {
	res, err := s.client.GraphQL().Aggregate().
		WithClassName(vector.ClassName).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("graphql error: %v", res.Errors)
	}

	if data, ok := res.Data["Aggregate"].(map[string]interface{}); ok {
		if rows, ok := data[vector.ClassName].([]interface{}); ok && len(rows) > 0 {
			if props, ok := rows[0].(map[string]interface{}); ok {
				if meta, ok := props["meta"].(map[string]interface{}); ok {
					if count, ok := meta["count"].(float64); ok {
						return int(count), nil
					}
				}
			}
		}
	}
	return 0, nil
}
