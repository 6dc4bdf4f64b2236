package usecase

import (
	"context"

	"github.com/nguyentranbao-ct/product-hub/internal/models"
)

type ProductUsecase interface {
	// Search returns stored products whose name is close to the keyword,
	// most relevant first.
	Search(ctx context.Context, query models.SearchQuery) (*models.SearchResult, error)
	Create(ctx context.Context, payload models.ProductPayload) (*models.CreatedProduct, error)
	// Update replaces the editable fields of a product. Only its author may
	// edit a product that has one.
	Update(ctx context.Context, id, editor string, payload models.ProductPayload) (*models.Product, error)
	List(ctx context.Context, page, size int64) (*models.ProductPage, error)
	Get(ctx context.Context, id string) (*models.Product, error)
}

type SyndicationUsecase interface {
	// Syndicate pushes a created product to every configured partner.
	Syndicate(ctx context.Context, event models.ProductEvent) ([]models.Syndication, error)
	ListByProduct(ctx context.Context, productID string) ([]models.Syndication, error)
}

// EventPublisher announces product changes to other services.
type EventPublisher interface {
	PublishProductCreated(ctx context.Context, event models.ProductEvent) error
}
