// Package productapi calls the product directory over HTTP. It satisfies the
// search and create contracts used by the submission orchestrator.
package productapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nguyentranbao-ct/product-hub/internal/formerror"
	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"github.com/nguyentranbao-ct/product-hub/pkg/util"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Client interface {
	Search(ctx context.Context, query models.SearchQuery) (*models.SearchResult, error)
	Create(ctx context.Context, payload models.ProductPayload) (*models.CreatedProduct, error)
}

type client struct {
	rc *resty.Client
}

type apiError struct {
	Message string              `json:"message"`
	Errors  []models.FieldError `json:"errors"`
}

// New returns a client for baseURL. Only reads are retried; a create is
// sent exactly once.
func New(baseURL, token string, timeout time.Duration) Client {
	rc := util.NewRestyClient(timeout, util.IdempotentMethods...).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	if token != "" {
		rc.SetAuthToken(token)
	}
	return &client{rc: rc}
}

func (c *client) Search(ctx context.Context, query models.SearchQuery) (*models.SearchResult, error) {
	var result models.SearchResult
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"keyword":       query.Keyword,
			"minimum_score": strconv.Itoa(query.MinimumScore),
			"max_results":   strconv.Itoa(query.MaxResults),
		}).
		SetResult(&result).
		SetError(&apiError{}).
		Get("/api/v1/products/search")
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	if resp.IsError() {
		return nil, toError(resp)
	}
	if result.Candidates == nil {
		result.Candidates = []models.ProductCandidate{}
	}
	return &result, nil
}

func (c *client) Create(ctx context.Context, payload models.ProductPayload) (*models.CreatedProduct, error) {
	var created models.CreatedProduct
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&created).
		SetError(&apiError{}).
		Post("/api/v1/products")
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	if resp.IsError() {
		return nil, toError(resp)
	}
	return &created, nil
}

// toError restores the server's error: field errors become a
// ValidationError, anything else a status error carrying the message.
func toError(resp *resty.Response) error {
	apiErr, _ := resp.Error().(*apiError)
	if apiErr != nil && len(apiErr.Errors) > 0 {
		return &formerror.ValidationError{Errors: apiErr.Errors}
	}

	msg := http.StatusText(resp.StatusCode())
	if apiErr != nil && apiErr.Message != "" {
		msg = apiErr.Message
	}
	return status.Error(httpToCode(resp.StatusCode()), msg)
}

func httpToCode(code int) codes.Code {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.AlreadyExists
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
