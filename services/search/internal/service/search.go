package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/search/internal/models"
)

var ErrValidation = errors.New("validation")

const (
	maxQueryLen = 200
	// MaxResultWindow matches the index.max_result_window default; deeper
	// pages are rejected by Elasticsearch.
	MaxResultWindow = 10_000
)

type Index interface {
	Upsert(ctx context.Context, p models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type SearchService struct {
	Index Index
}

func (s *SearchService) Search(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, fmt.Errorf("%w: q required", ErrValidation)
	}
	if len(query) > maxQueryLen {
		return 0, nil, fmt.Errorf("%w: q longer than %d bytes", ErrValidation, maxQueryLen)
	}
	if offset < 0 || limit < 0 || offset+limit > MaxResultWindow {
		return 0, nil, fmt.Errorf("%w: results past %d are not available, refine the query", ErrValidation, MaxResultWindow)
	}
	return s.Index.Search(ctx, query, offset, limit)
}

func (s *SearchService) IndexProduct(ctx context.Context, p models.Product) error {
	if p.ID == uuid.Nil {
		return fmt.Errorf("%w: product id required", ErrValidation)
	}
	if err := s.Index.Upsert(ctx, p); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("product_indexed", "product_id", p.ID)
	return nil
}

func (s *SearchService) RemoveProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Index.Delete(ctx, id); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("product_unindexed", "product_id", id)
	return nil
}
