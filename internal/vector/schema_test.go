package vector

import (
	"context"
	"testing"

	"github.com/weaviate/weaviate/entities/models"
)

type MockSchemaClient struct {
	CreatedClass    *models.Class
	ExistingClass   *models.Class
	AddedProperties []*models.Property
}

func (m *MockSchemaClient) ClassExists(ctx context.Context, className string) (bool, error) {
	if m.ExistingClass != nil {
		return true, nil
	}
	return false, nil
}

func (m *MockSchemaClient) CreateClass(ctx context.Context, class *models.Class) error {
	m.CreatedClass = class
	return nil
}

func (m *MockSchemaClient) GetClass(ctx context.Context, className string) (*models.Class, error) {
	return m.ExistingClass, nil
}

func (m *MockSchemaClient) AddProperty(ctx context.Context, className string, property *models.Property) error {
	m.AddedProperties = append(m.AddedProperties, property)
	return nil
}

func TestEnsureSchema_CreatesClass(t *testing.T) {
	client := &MockSchemaClient{}
	if err := EnsureSchema(context.Background(), client); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	if client.CreatedClass == nil {
		t.Fatal("Class not created")
	}
	if client.CreatedClass.Class != ClassName {
		t.Errorf("Class name = %q, want %q", client.CreatedClass.Class, ClassName)
	}
	if client.CreatedClass.Vectorizer != "none" {
		t.Errorf("Vectorizer = %q, want none", client.CreatedClass.Vectorizer)
	}

	expectedProps := map[string]string{
		"content":  "text",
		"caption":  "text",
		"corpusId": "string",
		"chunkId":  "int",
		"source":   "string",
		"page":     "int",
		"kind":     "string",
		"labelKey": "string",
	}

	seen := make(map[string]bool)
	for _, prop := range client.CreatedClass.Properties {
		seen[prop.Name] = true
		if expectedType, ok := expectedProps[prop.Name]; ok {
			if len(prop.DataType) == 0 || prop.DataType[0] != expectedType {
				t.Errorf("Property %s has wrong DataType: %v (expected %s)", prop.Name, prop.DataType, expectedType)
			}
		}
	}
	for name := range expectedProps {
		if !seen[name] {
			t.Errorf("Missing property %q", name)
		}
	}
}

func TestEnsureSchema_AddsMissingProperties(t *testing.T) {
	// Simulate an existing class created before caption and labelKey landed.
	existingClass := &models.Class{
		Class: ClassName,
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "corpusId", DataType: []string{"string"}},
			{Name: "chunkId", DataType: []string{"int"}},
			{Name: "source", DataType: []string{"string"}},
			{Name: "page", DataType: []string{"int"}},
			{Name: "kind", DataType: []string{"string"}},
		},
	}

	client := &MockSchemaClient{
		ExistingClass: existingClass,
	}

	if err := EnsureSchema(context.Background(), client); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	if client.CreatedClass != nil {
		t.Fatal("Should not recreate class if it exists")
	}

	addedNames := make(map[string]bool)
	for _, p := range client.AddedProperties {
		addedNames[p.Name] = true
	}

	if !addedNames["caption"] {
		t.Error("Missing 'caption' property")
	}
	if !addedNames["labelKey"] {
		t.Error("Missing 'labelKey' property")
	}
	if addedNames["content"] {
		t.Error("Should not re-add existing 'content' property")
	}
}
