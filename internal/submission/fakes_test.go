package submission

import (
	"context"
	"sync"

	"github.com/nguyentranbao-ct/product-hub/internal/models"
)

// recorder collects the calls made to every collaborator, in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.calls...)
}

type fakeSearch struct {
	rec     *recorder
	result  *models.SearchResult
	err     error
	block   chan struct{}
	queries []models.SearchQuery
}

func (f *fakeSearch) Search(ctx context.Context, query models.SearchQuery) (*models.SearchResult, error) {
	f.rec.add("search")
	f.queries = append(f.queries, query)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

type fakeCreate struct {
	rec      *recorder
	id       string
	err      error
	block    chan struct{}
	payloads []models.ProductPayload
}

func (f *fakeCreate) Create(_ context.Context, payload models.ProductPayload) (*models.CreatedProduct, error) {
	f.rec.add("create")
	f.payloads = append(f.payloads, payload)
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.CreatedProduct{ID: f.id, Name: payload.Name}, nil
}

type fakeConfirmer struct {
	rec      *recorder
	decision Decision
	err      error
	shown    [][]models.ProductCandidate
}

func (f *fakeConfirmer) Confirm(_ context.Context, candidates []models.ProductCandidate, _ int) (Decision, error) {
	f.rec.add("confirm")
	f.shown = append(f.shown, candidates)
	return f.decision, f.err
}

type fakeSurface struct {
	rec           *recorder
	mu            sync.Mutex
	notifications []models.Notification
	routes        []models.Route
}

func (f *fakeSurface) Success(_ context.Context, message string) {
	f.rec.add("success")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, models.Notification{Level: models.NotificationSuccess, Message: message})
}

func (f *fakeSurface) Error(_ context.Context, message string) {
	f.rec.add("error")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, models.Notification{Level: models.NotificationError, Message: message})
}

func (f *fakeSurface) Replace(_ context.Context, route models.Route) {
	f.rec.add("navigate")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes = append(f.routes, route)
}

func duplicates(names ...string) *models.SearchResult {
	res := &models.SearchResult{Candidates: []models.ProductCandidate{}}
	for i, name := range names {
		res.Candidates = append(res.Candidates, models.ProductCandidate{ID: string(rune('a' + i)), Name: name, Score: 90 - i})
	}
	res.Total = len(names)
	return res
}
