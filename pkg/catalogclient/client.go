package catalogclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var ErrNotFound = errors.New("product not found")

const defaultMaxConcurrent = 8

type Product struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Price    int64     `json:"price"`
	Stock    uint      `json:"stock"`
	Category string    `json:"category"`
	Images   []string  `json:"images"`
}

type Client struct {
	baseURL       string
	httpClient    *http.Client
	maxConcurrent int
}

func NewClient(catalogServiceURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(catalogServiceURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxConcurrent: defaultMaxConcurrent,
	}
}

func (c *Client) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/catalog/products/"+id.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	default:
		return nil, fmt.Errorf("catalog returned status: %d", resp.StatusCode)
	}

	var p Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &p, nil
}

// GetProducts fetches products concurrently. Ids the catalog does not know are
// returned in missing; any other failure aborts the whole call.
func (c *Client) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Product, []uuid.UUID, error) {
	var (
		mu      sync.Mutex
		found   = make(map[uuid.UUID]Product, len(ids))
		missing []uuid.UUID
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrent)

	for _, id := range ids {
		g.Go(func() error {
			p, err := c.GetProduct(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, ErrNotFound) {
				missing = append(missing, id)
				return nil
			}
			if err != nil {
				return fmt.Errorf("product %s: %w", id, err)
			}
			found[id] = *p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return found, missing, nil
}
