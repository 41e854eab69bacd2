package search

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
)

// Noop is the indexer used when Elasticsearch is not configured.
type Noop struct{}

func (Noop) IndexProduct(context.Context, *models.Product) error { return nil }

func (Noop) DeleteProduct(context.Context, string) error { return nil }
