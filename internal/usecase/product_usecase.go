package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nguyentranbao-ct/product-hub/internal/config"
	"github.com/nguyentranbao-ct/product-hub/internal/formerror"
	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"github.com/nguyentranbao-ct/product-hub/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/product-hub/internal/validate"
	log "github.com/nguyentranbao-ct/product-hub/pkg/logger/logctx"
)

const (
	DefaultMaxResults = 5
	DefaultPageSize   = 15
	maxPageSize       = 100
)

type productUsecase struct {
	productRepo mongodb.ProductRepository
	publisher   EventPublisher
	validator   *validate.Validator
	prefetch    int64
	now         func() time.Time
}

func NewProductUsecase(
	cfg *config.Config,
	productRepo mongodb.ProductRepository,
	publisher EventPublisher,
) ProductUsecase {
	prefetch := cfg.Search.Prefetch
	if prefetch <= 0 {
		prefetch = 50
	}
	return &productUsecase{
		productRepo: productRepo,
		publisher:   publisher,
		validator:   validate.New(),
		prefetch:    prefetch,
		now:         time.Now,
	}
}

func (uc *productUsecase) Search(ctx context.Context, query models.SearchQuery) (*models.SearchResult, error) {
	keyword := strings.TrimSpace(query.Keyword)
	result := &models.SearchResult{Candidates: []models.ProductCandidate{}}
	if keyword == "" {
		return result, nil
	}
	minScore := max(query.MinimumScore, 0)
	maxResults := query.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	products, err := uc.productRepo.FindCandidates(ctx, keyword, uc.prefetch)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	for _, p := range products {
		score := Score(keyword, p.Name)
		if score < minScore || score == 0 {
			continue
		}
		result.Candidates = append(result.Candidates, p.Candidate(score))
	}
	slices.SortStableFunc(result.Candidates, func(a, b models.ProductCandidate) int {
		return b.Score - a.Score
	})

	result.Total = len(result.Candidates)
	if len(result.Candidates) > maxResults {
		result.Candidates = result.Candidates[:maxResults]
	}

	log.Debugw(ctx, "product search",
		"keyword", keyword,
		"scanned", len(products),
		"total", result.Total,
	)
	return result, nil
}

func (uc *productUsecase) validate(payload models.ProductPayload) error {
	if err := uc.validator.Validate(payload); err != nil {
		if verr := formerror.FromValidator(err); verr != nil {
			return verr
		}
		return fmt.Errorf("validate payload: %w", err)
	}
	return nil
}

func (uc *productUsecase) Create(ctx context.Context, payload models.ProductPayload) (*models.CreatedProduct, error) {
	if err := uc.validate(payload); err != nil {
		return nil, err
	}

	product := models.NewProduct(payload, uc.now())
	if err := uc.productRepo.Create(ctx, &product); err != nil {
		return nil, err
	}
	log.Infow(ctx, "product created", "product_id", product.ID.Hex(), "name", product.Name)

	if err := uc.publisher.PublishProductCreated(ctx, models.NewProductCreatedEvent(product)); err != nil {
		log.Errorw(ctx, "failed to publish product created", "product_id", product.ID.Hex(), "error", err)
	}

	return &models.CreatedProduct{ID: product.ID.Hex(), Name: product.Name}, nil
}

func (uc *productUsecase) Update(ctx context.Context, id, editor string, payload models.ProductPayload) (*models.Product, error) {
	if err := uc.validate(payload); err != nil {
		return nil, err
	}

	product, err := uc.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.CreatedBy != "" && product.CreatedBy != editor {
		return nil, models.ErrNotAuthor
	}

	product.Apply(payload, uc.now())
	if err := uc.productRepo.UpdateByID(ctx, id, *product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	log.Infow(ctx, "product updated", "product_id", id, "editor", editor)
	return product, nil
}

func (uc *productUsecase) List(ctx context.Context, page, size int64) (*models.ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	size = min(size, maxPageSize)

	res, err := uc.productRepo.List(ctx, page, size)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &models.ProductPage{
		Items: res.Data,
		Total: res.Total,
		Page:  page,
		Size:  size,
	}, nil
}

func (uc *productUsecase) Get(ctx context.Context, id string) (*models.Product, error) {
	return uc.productRepo.FindByID(ctx, id)
}
