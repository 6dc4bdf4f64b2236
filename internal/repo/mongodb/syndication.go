package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SyndicationRepository interface {
	// Record upserts the latest attempt for a product/partner pair.
	Record(ctx context.Context, s *models.Syndication) error
	ListByProduct(ctx context.Context, productID string) ([]models.Syndication, error)
	EnsureIndexes(ctx context.Context) error
}

type syndicationRepo struct {
	baseRepo[models.Syndication]
}

func NewSyndicationRepository(db *DB) SyndicationRepository {
	return &syndicationRepo{
		baseRepo: newBaseRepo[models.Syndication](db.Database),
	}
}

func (r *syndicationRepo) Record(ctx context.Context, s *models.Syndication) error {
	now := time.Now()
	s.UpdatedAt = now

	filter := bson.M{
		"product_id": s.ProductID,
		"partner":    s.Partner,
	}
	update := bson.M{
		"$set":         s.GetUpdates(),
		"$inc":         bson.M{"attempts": 1},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var saved models.Syndication
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		return fmt.Errorf("record syndication: %w", err)
	}
	*s = saved
	return nil
}

func (r *syndicationRepo) ListByProduct(ctx context.Context, productID string) ([]models.Syndication, error) {
	opts := options.Find().SetSort(bson.D{{Key: "partner", Value: 1}})
	return r.Find(ctx, bson.M{"product_id": productID}, opts)
}

func (r *syndicationRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "product_id", Value: 1},
			{Key: "partner", Value: 1},
		},
		Options: options.Index().
			SetUnique(true).
			SetName("product_partner"),
	})
	if err != nil {
		return fmt.Errorf("create syndication indexes: %w", err)
	}
	return nil
}
