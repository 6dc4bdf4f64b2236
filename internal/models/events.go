package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const PatternProductCreated = "product.created"

// ProductEvent is the envelope published to kafka.
type ProductEvent struct {
	Pattern string           `json:"pattern"`
	Data    ProductEventData `json:"data"`
}

type ProductEventData struct {
	ID        string    `json:"id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Tagline   string    `json:"tagline"`
	Website   string    `json:"website"`
	Tags      []string  `json:"tags"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewProductCreatedEvent(p Product) ProductEvent {
	return ProductEvent{
		Pattern: PatternProductCreated,
		Data: ProductEventData{
			ID:        p.ID.Hex(),
			Name:      p.Name,
			Tagline:   p.Tagline,
			Website:   p.Website,
			Tags:      p.Tags,
			CreatedBy: p.CreatedBy,
			CreatedAt: p.CreatedAt,
		},
	}
}

type SyndicationStatus string

const (
	SyndicationDelivered SyndicationStatus = "delivered"
	SyndicationFailed    SyndicationStatus = "failed"
)

// Syndication records one push of a product to a partner platform.
type Syndication struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID  string             `bson:"product_id" json:"product_id"`
	Partner    string             `bson:"partner" json:"partner"`
	Status     SyndicationStatus  `bson:"status" json:"status"`
	ExternalID string             `bson:"external_id,omitempty" json:"external_id,omitempty"`
	Error      string             `bson:"error,omitempty" json:"error,omitempty"`
	Attempts   int                `bson:"attempts" json:"attempts"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

func (Syndication) CollectionName() string {
	return "syndications"
}

func (s Syndication) GetObjectID() ObjectID {
	return ObjectID(s.ID.Hex())
}

func (s Syndication) GetUpdates() any {
	return bson.M{
		"status":      s.Status,
		"external_id": s.ExternalID,
		"error":       s.Error,
		"updated_at":  s.UpdatedAt,
	}
}
