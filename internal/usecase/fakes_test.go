package usecase

import (
	"context"
	"sync"

	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"github.com/nguyentranbao-ct/product-hub/internal/repo/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fakeProductRepo struct {
	products  []models.Product
	created   []models.Product
	updated   []models.Product
	createErr error
	updateErr error
	findErr   error
	lastLimit int64
	lastPage  int64
	lastSize  int64
}

var _ mongodb.ProductRepository = (*fakeProductRepo)(nil)

func (f *fakeProductRepo) Insert(context.Context, models.Product, ...*options.InsertOneOptions) (string, error) {
	return "", nil
}

func (f *fakeProductRepo) Find(context.Context, bson.M, ...*options.FindOptions) ([]models.Product, error) {
	return f.products, nil
}

func (f *fakeProductRepo) FindByID(_ context.Context, id string) (*models.Product, error) {
	if _, err := models.ParseObjectID(id); err != nil {
		return nil, err
	}
	for _, p := range f.products {
		if p.ID.Hex() == id {
			return &p, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeProductRepo) UpdateByID(_ context.Context, _ string, p models.Product) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, p)
	return nil
}

func (f *fakeProductRepo) Count(context.Context, bson.M, ...*options.CountOptions) (int64, error) {
	return int64(len(f.products)), nil
}

func (f *fakeProductRepo) PaginateWithTotal(context.Context, bson.M, int64, int64, ...*options.FindOptions) (*mongodb.PaginateWithTotal[models.Product], error) {
	return &mongodb.PaginateWithTotal[models.Product]{Total: int64(len(f.products)), Data: f.products}, nil
}

func (f *fakeProductRepo) Create(_ context.Context, p *models.Product) error {
	if f.createErr != nil {
		return f.createErr
	}
	p.ID = primitive.NewObjectID()
	f.created = append(f.created, *p)
	return nil
}

func (f *fakeProductRepo) List(_ context.Context, page, size int64) (*mongodb.PaginateWithTotal[models.Product], error) {
	f.lastPage, f.lastSize = page, size
	return &mongodb.PaginateWithTotal[models.Product]{Total: int64(len(f.products)), Data: f.products}, nil
}

func (f *fakeProductRepo) FindCandidates(_ context.Context, _ string, limit int64) ([]models.Product, error) {
	f.lastLimit = limit
	if f.findErr != nil {
		return nil, f.findErr
	}
	if int64(len(f.products)) > limit {
		return f.products[:limit], nil
	}
	return f.products, nil
}

func (f *fakeProductRepo) EnsureIndexes(context.Context) error {
	return nil
}

type fakePublisher struct {
	events []models.ProductEvent
	err    error
}

func (f *fakePublisher) PublishProductCreated(_ context.Context, event models.ProductEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type fakeSyndicationRepo struct {
	mu        sync.Mutex
	records   []models.Syndication
	recordErr error
}

func (f *fakeSyndicationRepo) Record(_ context.Context, s *models.Syndication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	s.Attempts++
	f.records = append(f.records, *s)
	return nil
}

func (f *fakeSyndicationRepo) ListByProduct(_ context.Context, productID string) ([]models.Syndication, error) {
	out := make([]models.Syndication, 0)
	for _, s := range f.records {
		if s.ProductID == productID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSyndicationRepo) EnsureIndexes(context.Context) error {
	return nil
}

func product(name string) models.Product {
	return models.Product{ID: primitive.NewObjectID(), Name: name}
}
