package mongodb

import (
	"context"
	"testing"

	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestProductRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create assigns id and timestamps", func(mt *mtest.T) {
		repo := NewProductRepository(&DB{Client: mt.Client, Database: mt.DB})
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p := &models.Product{Name: "WidgetX"}
		require.NoError(mt, repo.Create(context.Background(), p))

		assert.False(mt, p.ID.IsZero())
		assert.False(mt, p.CreatedAt.IsZero())
		assert.Equal(mt, p.CreatedAt, p.UpdatedAt)
	})

	mt.Run("create surfaces write errors", func(mt *mtest.T) {
		repo := NewProductRepository(&DB{Client: mt.Client, Database: mt.DB})
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    121,
			Message: "Document failed validation",
		}))

		err := repo.Create(context.Background(), &models.Product{Name: "WidgetX"})
		assert.ErrorContains(mt, err, "create product")
	})

	mt.Run("find by id", func(mt *mtest.T) {
		repo := NewProductRepository(&DB{Client: mt.Client, Database: mt.DB})
		oid := primitive.NewObjectID()
		ns := mt.DB.Name() + "." + models.Product{}.CollectionName()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "name", Value: "WidgetX"},
			{Key: "tags", Value: bson.A{"tools"}},
		}))

		got, err := repo.FindByID(context.Background(), oid.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, oid, got.ID)
		assert.Equal(mt, "WidgetX", got.Name)
		assert.Equal(mt, []string{"tools"}, got.Tags)
	})

	mt.Run("find by id not found", func(mt *mtest.T) {
		repo := NewProductRepository(&DB{Client: mt.Client, Database: mt.DB})
		ns := mt.DB.Name() + "." + models.Product{}.CollectionName()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByID(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})

	mt.Run("find by id rejects malformed ids", func(mt *mtest.T) {
		repo := NewProductRepository(&DB{Client: mt.Client, Database: mt.DB})

		_, err := repo.FindByID(context.Background(), "not-an-object-id")
		assert.ErrorIs(mt, err, models.ErrInvalidID)
	})

	mt.Run("update by id", func(mt *mtest.T) {
		repo := NewProductRepository(&DB{Client: mt.Client, Database: mt.DB})
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		oid := primitive.NewObjectID()
		p := models.Product{ID: oid, Name: "WidgetX 2", Role: models.ProductRoleMaker}
		require.NoError(mt, repo.UpdateByID(context.Background(), oid.Hex(), p))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)
	})

	mt.Run("update by id not found", func(mt *mtest.T) {
		repo := NewProductRepository(&DB{Client: mt.Client, Database: mt.DB})
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		oid := primitive.NewObjectID()
		err := repo.UpdateByID(context.Background(), oid.Hex(), models.Product{ID: oid, Name: "WidgetX"})
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})

	mt.Run("find candidates short-circuits empty keyword", func(mt *mtest.T) {
		repo := NewProductRepository(&DB{Client: mt.Client, Database: mt.DB})

		got, err := repo.FindCandidates(context.Background(), "", 10)
		require.NoError(mt, err)
		assert.Empty(mt, got)
	})
}

func TestSyndicationRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("record returns the stored attempt", func(mt *mtest.T) {
		repo := NewSyndicationRepository(&DB{Client: mt.Client, Database: mt.DB})
		oid := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{
				{Key: "_id", Value: oid},
				{Key: "product_id", Value: "p1"},
				{Key: "partner", Value: "tophub"},
				{Key: "status", Value: "delivered"},
				{Key: "attempts", Value: 2},
			}},
		})

		s := &models.Syndication{ProductID: "p1", Partner: "tophub", Status: models.SyndicationDelivered}
		require.NoError(mt, repo.Record(context.Background(), s))
		assert.Equal(mt, oid, s.ID)
		assert.Equal(mt, 2, s.Attempts)
	})

	mt.Run("list by product", func(mt *mtest.T) {
		repo := NewSyndicationRepository(&DB{Client: mt.Client, Database: mt.DB})
		ns := mt.DB.Name() + "." + models.Syndication{}.CollectionName()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "product_id", Value: "p1"}, {Key: "partner", Value: "kuaizhi"}},
			bson.D{{Key: "product_id", Value: "p1"}, {Key: "partner", Value: "tophub"}},
		))

		got, err := repo.ListByProduct(context.Background(), "p1")
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, "kuaizhi", got[0].Partner)
		assert.Equal(mt, "tophub", got[1].Partner)
	})
}
