// Package index stores product documents in Elasticsearch.
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
	"github.com/elastic/go-elasticsearch/v9/esutil"
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/services/search/internal/models"
)

const DefaultIndex = "products"

const mapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "name":        {"type": "text"},
      "description": {"type": "text"},
      "category":    {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "price":       {"type": "long"},
      "stock":       {"type": "integer"},
      "rating":      {"type": "float"},
      "featured":    {"type": "boolean"},
      "updated_at":  {"type": "date"}
    }
  }
}`

type ESConfig struct {
	URL      string
	Username string
	Password string
}

func NewClient(cfg ESConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return client, nil
}

type Store struct {
	ES    *elasticsearch.Client
	Index string
}

func errorFrom(op string, res *esapi.Response) error {
	return fmt.Errorf("elasticsearch %s: %s", op, res.String())
}

// EnsureIndex creates the index with its mapping unless it already exists.
func (s *Store) EnsureIndex(ctx context.Context) error {
	res, err := s.ES.Indices.Exists([]string{s.Index}, s.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch index exists: %w", err)
	}
	status := res.StatusCode
	res.Body.Close()
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("elasticsearch index exists: status %d", status)
	}

	res, err = s.ES.Indices.Create(s.Index,
		s.ES.Indices.Create.WithContext(ctx),
		s.ES.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return errorFrom("create index", res)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, p models.Product) error {
	res, err := s.ES.Index(s.Index, esutil.NewJSONReader(p),
		s.ES.Index.WithContext(ctx),
		s.ES.Index.WithDocumentID(p.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return errorFrom("index", res)
	}
	return nil
}

// Delete removes a document. A missing document is not an error.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.ES.Delete(s.Index, id.String(), s.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return errorFrom("delete", res)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description", "category"},
				"fuzziness": "AUTO",
			},
		},
		"from":             from,
		"size":             size,
		"track_total_hits": true,
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(esutil.NewJSONReader(body)),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, errorFrom("search", res)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("elasticsearch decode: %w", err)
	}

	products := make([]models.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		products[i] = hit.Source
	}
	return r.Hits.Total.Value, products, nil
}

func (s *Store) Ping(ctx context.Context) error {
	res, err := s.ES.Info(s.ES.Info.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return errorFrom("info", res)
	}
	return nil
}
