package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductRole string

const (
	// ProductRoleMaker is set when the submitter built the product.
	ProductRoleMaker ProductRole = "maker"
	// ProductRoleHunter is set when the submitter discovered it.
	ProductRoleHunter ProductRole = "hunter"
)

// ProductDraft holds user-entered values before submission.
type ProductDraft struct {
	Name        string      `json:"name" validate:"required"`
	Tagline     string      `json:"tagline"`
	Description string      `json:"description"`
	Website     string      `json:"website"`
	Logo        string      `json:"logo"`
	Screenshots []string    `json:"screenshots"`
	Tags        []string    `json:"tags"`
	Platforms   []string    `json:"platforms"`
	Role        ProductRole `json:"role"`
}

// ProductPayload is the canonical create request derived from a draft.
type ProductPayload struct {
	Name        string      `json:"name" validate:"required,max=64"`
	Tagline     string      `json:"tagline" validate:"max=120"`
	Description string      `json:"description" validate:"max=5000"`
	Website     string      `json:"website" validate:"omitempty,url"`
	Logo        string      `json:"logo" validate:"omitempty,url"`
	Screenshots []string    `json:"screenshots" validate:"max=10,urls"`
	Tags        []string    `json:"tags" validate:"max=8,dive,max=24"`
	Platforms   []string    `json:"platforms" validate:"dive,max=24"`
	Role        ProductRole `json:"role" validate:"oneof=maker hunter"`
	CreatedBy   string      `json:"created_by,omitempty"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Tagline     string             `bson:"tagline" json:"tagline"`
	Description string             `bson:"description" json:"description"`
	Website     string             `bson:"website" json:"website"`
	Logo        string             `bson:"logo" json:"logo"`
	Screenshots []string           `bson:"screenshots" json:"screenshots"`
	Tags        []string           `bson:"tags" json:"tags"`
	Platforms   []string           `bson:"platforms" json:"platforms"`
	Role        ProductRole        `bson:"role" json:"role"`
	CreatedBy   string             `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

func (Product) CollectionName() string {
	return "products"
}

func (p Product) GetObjectID() ObjectID {
	return ObjectID(p.ID.Hex())
}

func (p Product) GetUpdates() any {
	return bson.M{
		"name":        p.Name,
		"tagline":     p.Tagline,
		"description": p.Description,
		"website":     p.Website,
		"logo":        p.Logo,
		"screenshots": p.Screenshots,
		"tags":        p.Tags,
		"platforms":   p.Platforms,
		"role":        p.Role,
		"updated_at":  p.UpdatedAt,
	}
}

// ProductCandidate is the read-only projection shown in a duplicate list.
type ProductCandidate struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Tagline string `json:"tagline,omitempty"`
	Logo    string `json:"logo,omitempty"`
	Website string `json:"website,omitempty"`
	Score   int    `json:"score"`
}

func (p Product) Candidate(score int) ProductCandidate {
	return ProductCandidate{
		ID:      p.ID.Hex(),
		Name:    p.Name,
		Tagline: p.Tagline,
		Logo:    p.Logo,
		Website: p.Website,
		Score:   score,
	}
}

type SearchQuery struct {
	Keyword      string `json:"keyword" query:"keyword" validate:"required"`
	MinimumScore int    `json:"minimum_score" query:"minimum_score" validate:"min=0,max=100"`
	MaxResults   int    `json:"max_results" query:"max_results" validate:"min=0,max=50"`
}

type SearchResult struct {
	Candidates []ProductCandidate `json:"candidates"`
	Total      int                `json:"total"`
}

type CreatedProduct struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FormToProduct maps a draft to its canonical payload.
func FormToProduct(draft ProductDraft) ProductPayload {
	role := draft.Role
	if role == "" {
		role = ProductRoleHunter
	}
	return ProductPayload{
		Name:        strings.TrimSpace(draft.Name),
		Tagline:     strings.TrimSpace(draft.Tagline),
		Description: strings.TrimSpace(draft.Description),
		Website:     strings.TrimSpace(draft.Website),
		Logo:        strings.TrimSpace(draft.Logo),
		Screenshots: compact(draft.Screenshots, false),
		Tags:        compact(draft.Tags, true),
		Platforms:   compact(draft.Platforms, true),
		Role:        role,
	}
}

// NewProduct builds the entity stored for a payload.
func NewProduct(payload ProductPayload, now time.Time) Product {
	return Product{
		Name:        payload.Name,
		Tagline:     payload.Tagline,
		Description: payload.Description,
		Website:     payload.Website,
		Logo:        payload.Logo,
		Screenshots: payload.Screenshots,
		Tags:        payload.Tags,
		Platforms:   payload.Platforms,
		Role:        payload.Role,
		CreatedBy:   payload.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Apply overwrites the editable fields with payload. The author and
// creation time never change.
func (p *Product) Apply(payload ProductPayload, now time.Time) {
	p.Name = payload.Name
	p.Tagline = payload.Tagline
	p.Description = payload.Description
	p.Website = payload.Website
	p.Logo = payload.Logo
	p.Screenshots = payload.Screenshots
	p.Tags = payload.Tags
	p.Platforms = payload.Platforms
	p.Role = payload.Role
	p.UpdatedAt = now
}

// compact trims entries, drops empty ones and duplicates, keeping first-seen order.
func compact(values []string, fold bool) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if fold {
			v = strings.ToLower(v)
		}
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ProductPage is one page of the directory listing.
type ProductPage struct {
	Items []Product `json:"items"`
	Total int64     `json:"total"`
	Page  int64     `json:"page"`
	Size  int64     `json:"size"`
}
