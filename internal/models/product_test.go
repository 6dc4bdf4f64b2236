package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestFormToProduct(t *testing.T) {
	draft := ProductDraft{
		Name:        "  WidgetX ",
		Tagline:     " widgets, but better ",
		Website:     "https://widgetx.example ",
		Screenshots: []string{"https://img/1.png", " ", "https://img/1.png", "https://img/2.png"},
		Tags:        []string{"Tools", "tools", " AI ", ""},
		Platforms:   []string{"iOS", "Web"},
	}

	got := FormToProduct(draft)

	assert.Equal(t, ProductPayload{
		Name:        "WidgetX",
		Tagline:     "widgets, but better",
		Website:     "https://widgetx.example",
		Screenshots: []string{"https://img/1.png", "https://img/2.png"},
		Tags:        []string{"tools", "ai"},
		Platforms:   []string{"ios", "web"},
		Role:        ProductRoleHunter,
	}, got)
}

func TestFormToProductKeepsRole(t *testing.T) {
	got := FormToProduct(ProductDraft{Name: "WidgetX", Role: ProductRoleMaker})
	assert.Equal(t, ProductRoleMaker, got.Role)
	assert.Empty(t, got.Tags)
	assert.NotNil(t, got.Tags)
}

func TestProductApply(t *testing.T) {
	created := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	edited := created.Add(time.Hour)
	p := Product{Name: "WidgetX", CreatedBy: "user-1", CreatedAt: created, Role: ProductRoleHunter}

	p.Apply(FormToProduct(ProductDraft{Name: "WidgetX 2", Role: ProductRoleMaker}), edited)

	assert.Equal(t, "WidgetX 2", p.Name)
	assert.Equal(t, ProductRoleMaker, p.Role)
	assert.Equal(t, "user-1", p.CreatedBy)
	assert.Equal(t, created, p.CreatedAt)
	assert.Equal(t, edited, p.UpdatedAt)

	updates, ok := p.GetUpdates().(bson.M)
	assert.True(t, ok)
	assert.Equal(t, ProductRoleMaker, updates["role"])
	assert.Equal(t, "WidgetX 2", updates["name"])
	assert.Equal(t, edited, updates["updated_at"])
	assert.NotContains(t, updates, "created_by")
	assert.NotContains(t, updates, "created_at")
}

func TestEditorRoute(t *testing.T) {
	route := EditorRoute("65f0c0ffee", EditorStep)

	assert.Equal(t, "/[id]/editor", route.Pathname)
	assert.Equal(t, RouteQuery{ID: "65f0c0ffee", Step: 2}, route.Query)
	assert.Equal(t, "/65f0c0ffee/editor?step=2", route.As)
	assert.True(t, route.Replace)
}

func TestSubmissionResult(t *testing.T) {
	assert.True(t, SubmissionResult{ID: "1"}.Succeeded())
	assert.False(t, SubmissionResult{Errors: []FieldError{{Message: "taken"}}}.Succeeded())
	assert.False(t, SubmissionResult{}.Succeeded())
}
