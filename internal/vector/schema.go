package vector

import (
	"context"

	"github.com/weaviate/weaviate/entities/models"
)

// ClassName is the Weaviate class holding one object per indexed chunk.
const ClassName = "CorpusChunk"

// SchemaClient defines the Weaviate schema operations EnsureSchema needs.
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
}

// EnsureSchema creates the CorpusChunk class if absent, or adds any missing
// properties to an existing class. Vectors are supplied client-side, so the
// class carries no vectorizer.
func EnsureSchema(ctx context.Context, client SchemaClient) error {
	exists, err := client.ClassExists(ctx, ClassName)
	if err != nil {
		return err
	}

	properties := []*models.Property{
		{
			Name:     "content",
			DataType: []string{"text"},
		},
		{
			Name:     "caption",
			DataType: []string{"text"},
		},
		{
			Name:     "corpusId",
			DataType: []string{"string"}, // UUID as string (exact match)
		},
		{
			Name:     "chunkId",
			DataType: []string{"int"},
		},
		{
			Name:     "source",
			DataType: []string{"string"},
		},
		{
			Name:     "page",
			DataType: []string{"int"},
		},
		{
			Name:     "kind",
			DataType: []string{"string"},
		},
		{
			Name:     "labelKey",
			DataType: []string{"string"},
		},
	}

	if !exists {
		class := &models.Class{
			Class:       ClassName,
			Description: "One classified chunk of an ingested corpus",
			Vectorizer:  "none",
			Properties:  properties,
		}
		return client.CreateClass(ctx, class)
	}

	// Class exists, check for missing properties
	class, err := client.GetClass(ctx, ClassName)
	if err != nil {
		return err
	}

	existingProps := make(map[string]bool)
	for _, p := range class.Properties {
		existingProps[p.Name] = true
	}

	for _, p := range properties {
		if !existingProps[p.Name] {
			if err := client.AddProperty(ctx, ClassName, p); err != nil {
				return err
			}
		}
	}

	return nil
}
