package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/gammazero/workerpool"
	"github.com/goccy/go-json"
	"github.com/go-resty/resty/v2"
	"github.com/nguyentranbao-ct/product-hub/internal/config"
	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"github.com/nguyentranbao-ct/product-hub/internal/repo/mongodb"
	log "github.com/nguyentranbao-ct/product-hub/pkg/logger/logctx"
	"github.com/nguyentranbao-ct/product-hub/pkg/tmplx"
	"github.com/nguyentranbao-ct/product-hub/pkg/util"
	"github.com/tidwall/gjson"
)

// partnerPayload is the data handed to the syndication body template.
type partnerPayload struct {
	models.ProductEventData
	Partner string
}

type syndicationUsecase struct {
	partners        map[string]string
	workers         int
	responseIDPath  string
	body            *tmplx.Template
	client          *resty.Client
	syndicationRepo mongodb.SyndicationRepository
}

func NewSyndicationUsecase(cfg *config.Config, syndicationRepo mongodb.SyndicationRepository) (SyndicationUsecase, error) {
	sample := partnerPayload{
		ProductEventData: models.ProductEventData{ID: "000000000000000000000000", Name: "Sample"},
		Partner:          "sample",
	}
	body, err := tmplx.Parse("syndication_body", cfg.Syndication.BodyTemplate,
		tmplx.WithValidate(sample, func(buf *bytes.Buffer) error {
			if !json.Valid(buf.Bytes()) {
				return fmt.Errorf("rendered body is not valid JSON: %s", buf.String())
			}
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("parse syndication body template: %w", err)
	}

	return &syndicationUsecase{
		partners:        cfg.Syndication.Partners,
		workers:         max(cfg.Syndication.Workers, 1),
		responseIDPath:  cfg.Syndication.ResponseIDPath,
		body:            body,
		client:          util.NewRestyClient(cfg.Syndication.Timeout),
		syndicationRepo: syndicationRepo,
	}, nil
}

func (uc *syndicationUsecase) Syndicate(ctx context.Context, event models.ProductEvent) ([]models.Syndication, error) {
	if event.Pattern != models.PatternProductCreated {
		log.Debugw(ctx, "skip syndication for event", "pattern", event.Pattern)
		return nil, nil
	}

	names := make([]string, 0, len(uc.partners))
	for name := range uc.partners {
		names = append(names, name)
	}
	slices.Sort(names)

	results := make([]models.Syndication, len(names))
	errs := make([]error, len(names))

	pool := workerpool.New(uc.workers)
	for i, name := range names {
		pool.Submit(func() {
			results[i], errs[i] = uc.push(ctx, name, uc.partners[name], event.Data)
		})
	}
	pool.StopWait()

	return results, errors.Join(errs...)
}

// push delivers one product to one partner and records the attempt.
// Partner failures are recorded, only storage failures are returned.
func (uc *syndicationUsecase) push(ctx context.Context, partner, endpoint string, data models.ProductEventData) (models.Syndication, error) {
	ctx = log.With(ctx, "partner", partner, "product_id", data.ID)
	s := models.Syndication{
		ProductID: data.ID,
		Partner:   partner,
		Status:    models.SyndicationDelivered,
	}

	externalID, err := uc.post(ctx, endpoint, partnerPayload{ProductEventData: data, Partner: partner})
	if err != nil {
		log.Warnw(ctx, "syndication failed", "error", err)
		s.Status = models.SyndicationFailed
		s.Error = err.Error()
	} else {
		s.ExternalID = externalID
		log.Infow(ctx, "product syndicated", "external_id", externalID)
	}

	if err := uc.syndicationRepo.Record(ctx, &s); err != nil {
		return s, fmt.Errorf("record %s: %w", partner, err)
	}
	return s, nil
}

func (uc *syndicationUsecase) post(ctx context.Context, endpoint string, payload partnerPayload) (string, error) {
	body, err := uc.body.Render(payload)
	if err != nil {
		return "", err
	}

	resp, err := uc.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body.Bytes()).
		Post(endpoint)
	if err != nil {
		return "", fmt.Errorf("post: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return "", fmt.Errorf("partner responded %d: %s", resp.StatusCode(), tmplx.Truncate(resp.String(), 200))
	}
	if uc.responseIDPath == "" {
		return "", nil
	}
	return gjson.GetBytes(resp.Body(), uc.responseIDPath).String(), nil
}

func (uc *syndicationUsecase) ListByProduct(ctx context.Context, productID string) ([]models.Syndication, error) {
	if _, err := models.ParseObjectID(productID); err != nil {
		return nil, err
	}
	return uc.syndicationRepo.ListByProduct(ctx, productID)
}
