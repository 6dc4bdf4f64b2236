package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nguyentranbao-ct/product-hub/internal/config"
	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"github.com/nguyentranbao-ct/product-hub/pkg/logger"
	"github.com/nguyentranbao-ct/product-hub/pkg/logger/logctx"
	"github.com/nguyentranbao-ct/product-hub/pkg/tmplx"
	"github.com/nguyentranbao-ct/product-hub/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Orchestrator runs one product submission at a time. It is safe for
// concurrent use; a Submit issued while another is running is rejected.
type Orchestrator struct {
	search     SearchService
	create     CreateService
	confirmer  Confirmer
	notifier   Notifier
	navigator  Navigator
	translator ErrorTranslator

	policy   string
	messages messages
	listener func(State)
	log      *zap.SugaredLogger
	outcomes *prometheus.CounterVec

	mu            sync.Mutex
	state         State
	searchLoading bool
	createLoading bool
}

type messages struct {
	created            *tmplx.Template
	searchUnavailable  *tmplx.Template
	confirmationFailed *tmplx.Template
}

type options struct {
	policy   string
	messages config.MessagesConfig
	listener func(State)
	log      *zap.SugaredLogger
}

type Option func(*options)

// WithSearchFailurePolicy selects what happens when the duplicate search fails:
// config.SearchFailureAbort or config.SearchFailureBypass.
func WithSearchFailurePolicy(policy string) Option {
	return func(o *options) {
		if policy != "" {
			o.policy = policy
		}
	}
}

// WithMessages overrides the notification templates that are set in m.
func WithMessages(m config.MessagesConfig) Option {
	return func(o *options) {
		if m.Created != "" {
			o.messages.Created = m.Created
		}
		if m.SearchUnavailable != "" {
			o.messages.SearchUnavailable = m.SearchUnavailable
		}
		if m.ConfirmationFailed != "" {
			o.messages.ConfirmationFailed = m.ConfirmationFailed
		}
	}
}

// WithStateListener registers fn to observe every state change.
// fn runs on the submitting goroutine and must not call Submit.
func WithStateListener(fn func(State)) Option {
	return func(o *options) {
		o.listener = fn
	}
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) {
		o.log = l
	}
}

func New(
	search SearchService,
	create CreateService,
	confirmer Confirmer,
	notifier Notifier,
	navigator Navigator,
	translator ErrorTranslator,
	opts ...Option,
) (*Orchestrator, error) {
	o := &options{
		policy: config.SearchFailureAbort,
		messages: config.MessagesConfig{
			Created:            `{{default "Product" .Name}} recommended`,
			SearchUnavailable:  "Duplicate check is unavailable, retry or submit without it",
			ConfirmationFailed: "Confirmation was interrupted, please submit again",
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.MustNamed("submission")
	}
	switch o.policy {
	case config.SearchFailureAbort, config.SearchFailureBypass:
	default:
		return nil, fmt.Errorf("unknown search failure policy %q", o.policy)
	}

	msgs, err := parseMessages(o.messages)
	if err != nil {
		return nil, err
	}
	outcomes, err := util.GetCounterVec("submission_outcomes_total", "Submissions by outcome.", "outcome")
	if err != nil {
		return nil, fmt.Errorf("submission metrics: %w", err)
	}

	return &Orchestrator{
		search:     search,
		create:     create,
		confirmer:  confirmer,
		notifier:   notifier,
		navigator:  navigator,
		translator: translator,
		policy:     o.policy,
		messages:   msgs,
		listener:   o.listener,
		log:        o.log,
		outcomes:   outcomes,
		state:      StateIdle,
	}, nil
}

func parseMessages(m config.MessagesConfig) (messages, error) {
	var (
		out messages
		err error
	)
	if out.created, err = tmplx.Parse("created", m.Created); err != nil {
		return out, fmt.Errorf("created message: %w", err)
	}
	if out.searchUnavailable, err = tmplx.Parse("search_unavailable", m.SearchUnavailable); err != nil {
		return out, fmt.Errorf("search unavailable message: %w", err)
	}
	if out.confirmationFailed, err = tmplx.Parse("confirmation_failed", m.ConfirmationFailed); err != nil {
		return out, fmt.Errorf("confirmation failed message: %w", err)
	}
	return out, nil
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Busy reports whether a submission is running or waiting for confirmation.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy()
}

func (o *Orchestrator) busy() bool {
	return o.searchLoading || o.createLoading || o.state == StateConfirming
}

type submitOptions struct {
	skipDuplicateCheck bool
	createdBy          string
}

type SubmitOption func(*submitOptions)

// SkipDuplicateCheck creates the product without searching first.
func SkipDuplicateCheck() SubmitOption {
	return func(o *submitOptions) {
		o.skipDuplicateCheck = true
	}
}

// AsUser stamps the created product with the submitting user.
func AsUser(userID string) SubmitOption {
	return func(o *submitOptions) {
		o.createdBy = userID
	}
}

// Submit runs search, confirmation and create for draft. Service failures
// are reported through the Notifier and the returned Report; the error is
// only set when the submission could not start.
func (o *Orchestrator) Submit(ctx context.Context, draft models.ProductDraft, opts ...SubmitOption) (*Report, error) {
	so := &submitOptions{}
	for _, opt := range opts {
		opt(so)
	}

	first := StateSearching
	if so.skipDuplicateCheck {
		first = StateCreating
	}

	o.mu.Lock()
	switch {
	case o.state == StateSucceeded:
		o.mu.Unlock()
		return nil, ErrSubmissionCompleted
	case o.busy():
		o.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	o.state = first
	o.searchLoading = first == StateSearching
	o.createLoading = first == StateCreating
	o.mu.Unlock()
	o.emit(first)

	report := &Report{Candidates: []models.ProductCandidate{}}

	if !so.skipDuplicateCheck {
		res, err := o.search.Search(ctx, models.SearchQuery{
			Keyword:      strings.TrimSpace(draft.Name),
			MinimumScore: MinimumScore,
			MaxResults:   MaxResults,
		})
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrSearchUnavailable, err)
			if o.policy == config.SearchFailureAbort {
				o.logger(ctx).Warnw("duplicate search failed, submission aborted", "error", err)
				o.notifier.Error(ctx, o.render(o.messages.searchUnavailable, draft))
				return o.finish(report, OutcomeSearchFailed, StateIdle), nil
			}
			o.logger(ctx).Warnw("duplicate search failed, creating without confirmation", "error", err)
		} else if res != nil {
			if res.Candidates != nil {
				report.Candidates = res.Candidates
			}
			report.Total = res.Total
		}

		if report.Total > 0 {
			o.enter(StateConfirming, false, false)
			decision, err := o.confirmer.Confirm(ctx, report.Candidates, report.Total)
			if err != nil {
				decision = DecisionErrored
			}
			switch decision {
			case DecisionConfirmed:
			case DecisionDismissed:
				o.logger(ctx).Infow("submission dismissed", "total", report.Total)
				return o.finish(report, OutcomeDismissed, StateIdle), nil
			default:
				o.logger(ctx).Warnw("confirmation failed", "error", err)
				o.notifier.Error(ctx, o.render(o.messages.confirmationFailed, draft))
				return o.finish(report, OutcomeConfirmationFailed, StateIdle), nil
			}
		}
		o.enter(StateCreating, false, true)
	}

	payload := models.FormToProduct(draft)
	payload.CreatedBy = so.createdBy
	created, err := o.create.Create(ctx, payload)
	return o.onCreateCompleted(ctx, report, created, err), nil
}

func (o *Orchestrator) onCreateCompleted(ctx context.Context, report *Report, created *models.CreatedProduct, err error) *Report {
	if err == nil && (created == nil || created.ID == "") {
		err = errors.New("create returned no product id")
	}

	if err != nil {
		report.Result = &models.SubmissionResult{Errors: o.translator.Translate(err)}
		if len(report.Result.Errors) == 0 {
			report.Result.Errors = []models.FieldError{{Message: err.Error()}}
		}
		o.logger(ctx).Warnw("create product failed", "error", err)
		o.enter(StateFailed, false, false)
		o.notifier.Error(ctx, report.Result.Errors[0].Message)
		return o.finish(report, OutcomeCreateFailed, StateIdle)
	}

	report.Result = &models.SubmissionResult{ID: created.ID}
	o.logger(ctx).Infow("product recommended", "product_id", created.ID)
	o.finish(report, OutcomeCreated, StateSucceeded)
	o.notifier.Success(ctx, o.render(o.messages.created, created))
	o.navigator.Replace(ctx, models.EditorRoute(created.ID, models.EditorStep))
	return report
}

func (o *Orchestrator) finish(report *Report, outcome Outcome, state State) *Report {
	report.Outcome = outcome
	report.State = state
	o.outcomes.WithLabelValues(string(outcome)).Inc()
	o.enter(state, false, false)
	return report
}

func (o *Orchestrator) enter(state State, searchLoading, createLoading bool) {
	o.mu.Lock()
	o.state = state
	o.searchLoading = searchLoading
	o.createLoading = createLoading
	o.mu.Unlock()
	o.emit(state)
}

func (o *Orchestrator) emit(state State) {
	if o.listener != nil {
		o.listener(state)
	}
}

func (o *Orchestrator) render(t *tmplx.Template, data any) string {
	msg, err := t.RenderString(data)
	if err != nil {
		o.log.Errorw("render message", "error", err)
		return ""
	}
	return msg
}

func (o *Orchestrator) logger(ctx context.Context) *zap.SugaredLogger {
	if fields := logctx.Fields(ctx); len(fields) > 0 {
		return o.log.With(fields...)
	}
	return o.log
}
