package weaviate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	adapter "folio/internal/adapter/weaviate"
	"folio/internal/chunk"
	"folio/internal/vector"
)

func mockWeaviate(t *testing.T, handler http.HandlerFunc) (*weaviate.Client, *httptest.Server) {
	ts := httptest.NewServer(handler)
	cfg := weaviate.Config{Host: ts.Listener.Addr().String(), Scheme: "http"}
	client, err := weaviate.NewClient(cfg)
	assert.NoError(t, err)
	return client, ts
}

func TestStore_Put(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		assert.Equal(t, "/v1/objects", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "CorpusChunk", body["class"])
		props := body["properties"].(map[string]interface{})
		assert.Equal(t, "corpus-1", props["corpusId"])
		assert.Equal(t, "table1: totals", props["caption"])
		assert.Equal(t, "table", props["kind"])
		assert.Equal(t, float64(3), props["chunkId"])

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "1"})
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	err := store.Put(context.Background(), vector.Entry{
		CorpusID: "corpus-1",
		ChunkID:  3,
		Source:   "paper",
		Page:     2,
		Kind:     chunk.KindTable,
		Content:  "| A |",
		Caption:  "table1: totals",
		LabelKey: "table1",
		Vector:   []float32{0.1, 0.2},
	})
	assert.NoError(t, err)
}

func TestStore_Search(t *testing.T) {
	var gqlQuery string
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		assert.Equal(t, "/v1/graphql", r.URL.Path)

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		gqlQuery, _ = body["query"].(string)

		w.WriteHeader(http.StatusOK)
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"Get": map[string]interface{}{
					"CorpusChunk": []interface{}{
						map[string]interface{}{
							"chunkId": 7.0,
							"_additional": map[string]interface{}{
								"distance": 0.12,
							},
						},
						map[string]interface{}{
							"chunkId": 4.0,
							"_additional": map[string]interface{}{
								// some server versions serialize distance as a string
								"distance": "0.3",
							},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	hits, err := store.Search(context.Background(), []float32{0.1, 0.2}, "corpus-1", chunk.KindTable, 2)
	assert.NoError(t, err)
	assert.Len(t, hits, 2)
	assert.Equal(t, int64(7), hits[0].ChunkID)
	assert.InDelta(t, 0.88, hits[0].Score, 1e-9)
	assert.Equal(t, int64(4), hits[1].ChunkID)
	assert.InDelta(t, 0.7, hits[1].Score, 1e-9)

	assert.Contains(t, gqlQuery, "nearVector")
	assert.Contains(t, gqlQuery, "corpusId")
	assert.Contains(t, gqlQuery, `"table"`)
}

func TestStore_Search_NoKindFilter(t *testing.T) {
	var gqlQuery string
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		gqlQuery, _ = body["query"].(string)

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"Get": map[string]interface{}{"CorpusChunk": []interface{}{}}},
		})
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	hits, err := store.Search(context.Background(), []float32{0.5}, "corpus-1", "", 6)
	assert.NoError(t, err)
	assert.Empty(t, hits)
	assert.NotContains(t, gqlQuery, "kind")
}

func TestStore_Search_GraphQLError(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"errors": [{"message": "class not found"}]}`))
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	_, err := store.Search(context.Background(), []float32{0.5}, "corpus-1", chunk.KindImage, 1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "graphql error")
}

func TestStore_DeleteByCorpus(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		assert.Equal(t, "/v1/batch/objects", r.URL.Path)
		assert.Equal(t, "DELETE", r.Method)
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{})
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	err := store.DeleteByCorpus(context.Background(), "corpus-1")
	assert.NoError(t, err)
}

func TestStore_Count(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		assert.Equal(t, "/v1/graphql", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"Aggregate": map[string]interface{}{
					"CorpusChunk": []interface{}{
						map[string]interface{}{
							"meta": map[string]interface{}{"count": 42.0},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	count, err := store.Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 42, count)
}

func TestStore_EnsureSchema_CreatesClass(t *testing.T) {
	var created map[string]interface{}
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/meta":
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
		case r.URL.Path == "/v1/schema/CorpusChunk":
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Path == "/v1/schema" && r.Method == "POST":
			json.NewDecoder(r.Body).Decode(&created)
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(created)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	err := store.EnsureSchema(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "CorpusChunk", created["class"])
	assert.Equal(t, "none", created["vectorizer"])
}
