package vectorstore_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefjnl/localai-knowledge/internal/vectorstore"
)

type qdrantFake struct {
	mu          sync.Mutex
	collections map[string]bool
	upserts     [][]json.RawMessage
	lastAPIKey  string
	deleted     []string
}

func newQdrantFake() *qdrantFake {
	return &qdrantFake{collections: map[string]bool{}}
}

func (f *qdrantFake) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/notes", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.lastAPIKey = r.Header.Get("api-key")
		switch r.Method {
		case http.MethodGet:
			if !f.collections["notes"] {
				http.Error(w, `{"status":{"error":"not found"}}`, http.StatusNotFound)
				return
			}
			w.Write([]byte(`{"result":{}}`))
		case http.MethodPut:
			f.collections["notes"] = true
			w.Write([]byte(`{"result":true}`))
		}
	})
	mux.HandleFunc("/collections/notes/points", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Points []json.RawMessage `json:"points"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.upserts = append(f.upserts, body.Points)
		f.mu.Unlock()
		w.Write([]byte(`{"result":{"status":"completed"}}`))
	})
	mux.HandleFunc("/collections/notes/points/search", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":[{"score":0.91,"payload":{"text":"hello","source":"talk","type":"transcript"}}]}`))
	})
	mux.HandleFunc("/collections/notes/points/delete", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Filter struct {
				Must []struct {
					Match struct {
						Value string `json:"value"`
					} `json:"match"`
				} `json:"must"`
			} `json:"filter"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		for _, m := range body.Filter.Must {
			f.deleted = append(f.deleted, m.Match.Value)
		}
		f.mu.Unlock()
		w.Write([]byte(`{"result":{"status":"completed"}}`))
	})
	return mux
}

func newStore(t *testing.T, baseURL string) vectorstore.Store {
	t.Helper()
	st, err := vectorstore.New("qdrant", map[string]interface{}{
		"base_url":   baseURL,
		"api_key":    "secret",
		"collection": "notes",
	})
	require.NoError(t, err)
	return st
}

func TestQdrantEnsureCollectionCreatesOnce(t *testing.T) {
	fake := newQdrantFake()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()
	st := newStore(t, srv.URL)

	require.NoError(t, st.EnsureCollection(context.Background(), 768))
	require.NoError(t, st.EnsureCollection(context.Background(), 768))
	assert.True(t, fake.collections["notes"])
	assert.Equal(t, "secret", fake.lastAPIKey)
}

func TestQdrantUpsertBatches(t *testing.T) {
	fake := newQdrantFake()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()
	st := newStore(t, srv.URL)

	points := make([]vectorstore.Point, 250)
	for i := range points {
		points[i] = vectorstore.Point{
			ID:      uint64(i),
			Vector:  []float32{0.1, 0.2},
			Payload: vectorstore.Payload{Text: "t", Source: "s", Type: "transcript"},
		}
	}
	require.NoError(t, st.Upsert(context.Background(), points))

	require.Len(t, fake.upserts, 3)
	assert.Len(t, fake.upserts[0], 100)
	assert.Len(t, fake.upserts[1], 100)
	assert.Len(t, fake.upserts[2], 50)
}

func TestQdrantQuery(t *testing.T) {
	fake := newQdrantFake()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()
	st := newStore(t, srv.URL)

	results, err := st.Query(context.Background(), []float32{0.5, 0.5}, 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.91, results[0].Score, 1e-6)
	assert.Equal(t, "hello", results[0].Payload.Text)
	assert.Equal(t, "talk", results[0].Payload.Source)
}

func TestQdrantDeleteBySource(t *testing.T) {
	fake := newQdrantFake()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()
	st := newStore(t, srv.URL)

	require.NoError(t, st.DeleteBySource(context.Background(), "old-doc"))
	assert.Equal(t, []string{"old-doc"}, fake.deleted)
}

func TestQdrantErrorIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	st := newStore(t, srv.URL)

	err := st.Upsert(context.Background(), []vectorstore.Point{{ID: 1, Vector: []float32{1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestNewUnknownStore(t *testing.T) {
	_, err := vectorstore.New("bogus", nil)
	assert.Error(t, err)
}
