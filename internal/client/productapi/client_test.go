package productapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nguyentranbao-ct/product-hub/internal/formerror"
	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/products/search", r.URL.Path)
		assert.Equal(t, "WidgetX", r.URL.Query().Get("keyword"))
		assert.Equal(t, "20", r.URL.Query().Get("minimum_score"))
		assert.Equal(t, "5", r.URL.Query().Get("max_results"))
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"id":"p1","name":"WidgetX","score":100}],"total":3}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "secret-token", time.Second)
	got, err := c.Search(context.Background(), models.SearchQuery{Keyword: "WidgetX", MinimumScore: 20, MaxResults: 5})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Total)
	require.Len(t, got.Candidates, 1)
	assert.Equal(t, 100, got.Candidates[0].Score)
}

func TestClient_SearchEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total":0}`))
	}))
	defer srv.Close()

	got, err := New(srv.URL, "", time.Second).Search(context.Background(), models.SearchQuery{Keyword: "x"})
	require.NoError(t, err)
	assert.NotNil(t, got.Candidates)
	assert.Equal(t, 0, got.Total)
}

func TestClient_SearchRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[],"total":0}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).Search(context.Background(), models.SearchQuery{Keyword: "x"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Create(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "WidgetX", gjson.GetBytes(body, "name").String())
		assert.Equal(t, "hunter", gjson.GetBytes(body, "role").String())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"p1","name":"WidgetX"}`))
	}))
	defer srv.Close()

	got, err := New(srv.URL, "", time.Second).Create(context.Background(), models.FormToProduct(models.ProductDraft{Name: "WidgetX"}))
	require.NoError(t, err)
	assert.Equal(t, &models.CreatedProduct{ID: "p1", Name: "WidgetX"}, got)
}

func TestClient_CreateValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":[{"field":"website","message":"website must be a valid URL"}]}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).Create(context.Background(), models.ProductPayload{Name: "WidgetX"})
	var verr *formerror.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []models.FieldError{{Field: "website", Message: "website must be a valid URL"}}, verr.Errors)
}

func TestClient_CreateIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"database unavailable"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).Create(context.Background(), models.ProductPayload{Name: "WidgetX"})
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Equal(t, "database unavailable", status.Convert(err).Message())
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).Search(context.Background(), models.SearchQuery{Keyword: "x"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, "Unauthorized", status.Convert(err).Message())
}
