package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"github.com/nguyentranbao-ct/product-hub/pkg/logger/logctx"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

type ProductRepository interface {
	IRepository[models.Product]
	Create(ctx context.Context, product *models.Product) error
	List(ctx context.Context, page, size int64) (*PaginateWithTotal[models.Product], error)
	// FindCandidates returns up to limit products loosely matching keyword,
	// merged from a full-text query and a case-insensitive name match.
	FindCandidates(ctx context.Context, keyword string, limit int64) ([]models.Product, error)
	EnsureIndexes(ctx context.Context) error
}

type productRepo struct {
	baseRepo[models.Product]
}

func NewProductRepository(db *DB) ProductRepository {
	return &productRepo{
		baseRepo: newBaseRepo[models.Product](db.Database),
	}
}

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
		product.UpdatedAt = product.CreatedAt
	}
	if _, err := r.Insert(ctx, *product); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *productRepo) List(ctx context.Context, page, size int64) (*PaginateWithTotal[models.Product], error) {
	if page < 1 {
		page = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return r.PaginateWithTotal(ctx, bson.M{}, size, (page-1)*size, opts)
}

func (r *productRepo) FindCandidates(ctx context.Context, keyword string, limit int64) ([]models.Product, error) {
	if keyword == "" || limit <= 0 {
		return []models.Product{}, nil
	}

	var byText, byName []models.Product
	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		opts := options.Find().
			SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
			SetSort(bson.M{"score": bson.M{"$meta": "textScore"}}).
			SetLimit(limit)
		found, err := r.Find(gctx, bson.M{"$text": bson.M{"$search": keyword}}, opts)
		if err != nil {
			return fmt.Errorf("text search: %w", err)
		}
		byText = found
		return nil
	})

	group.Go(func() error {
		filter := bson.M{"name": bson.M{
			"$regex":   regexp.QuoteMeta(keyword),
			"$options": "i",
		}}
		opts := options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(limit)
		found, err := r.Find(gctx, filter, opts)
		if err != nil {
			return fmt.Errorf("name search: %w", err)
		}
		byName = found
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[primitive.ObjectID]struct{}, len(byText)+len(byName))
	merged := make([]models.Product, 0, len(byText)+len(byName))
	for _, list := range [][]models.Product{byText, byName} {
		for _, p := range list {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			merged = append(merged, p)
		}
	}
	if int64(len(merged)) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

func (r *productRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "tagline", Value: "text"},
				{Key: "tags", Value: "text"},
			},
			Options: options.Index().
				SetName("product_text").
				SetWeights(bson.D{{Key: "name", Value: 10}, {Key: "tags", Value: 3}, {Key: "tagline", Value: 1}}).
				SetDefaultLanguage("none"),
		},
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("name"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
	}

	names, err := r.coll.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("create product indexes: %w", err)
	}
	logctx.Infow(ctx, "product indexes ready", "indexes", names)
	return nil
}
