package submission

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nguyentranbao-ct/product-hub/internal/config"
	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"github.com/nguyentranbao-ct/product-hub/pkg/logger"
	"github.com/nguyentranbao-ct/product-hub/pkg/logger/logctx"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrSessionNotFound = status.Error(codes.NotFound, "submission not found")
	ErrNotConfirming   = status.Error(codes.FailedPrecondition, "submission is not waiting for confirmation")
	errConfirmTimeout  = errors.New("confirmation timed out")
)

// Snapshot is the client-visible view of a session.
type Snapshot struct {
	ID            string                    `json:"id"`
	State         State                     `json:"state"`
	Outcome       Outcome                   `json:"outcome,omitempty"`
	Draft         models.ProductDraft       `json:"draft"`
	Candidates    []models.ProductCandidate `json:"candidates"`
	Total         int                       `json:"total"`
	Notifications []models.Notification     `json:"notifications"`
	Route         *models.Route             `json:"route,omitempty"`
	Result        *models.SubmissionResult  `json:"result,omitempty"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

// Manager keeps server-side submissions alive between the HTTP calls that
// start them and the calls that confirm or dismiss duplicates.
type Manager struct {
	search     SearchService
	create     CreateService
	translator ErrorTranslator
	opts       []Option

	confirmTimeout time.Duration
	sessionTTL     time.Duration
	runTimeout     time.Duration
	now            func() time.Time
	log            *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
	wg       sync.WaitGroup
}

func NewManager(
	cfg *config.Config,
	search SearchService,
	create CreateService,
	translator ErrorTranslator,
) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		search:     search,
		create:     create,
		translator: translator,
		opts: []Option{
			WithSearchFailurePolicy(cfg.Search.FailurePolicy),
			WithMessages(cfg.Messages),
		},
		confirmTimeout: cfg.Submission.ConfirmTimeout,
		sessionTTL:     cfg.Submission.SessionTTL,
		runTimeout:     cfg.Submission.RunTimeout,
		now:            time.Now,
		log:            logger.MustNamed("submission"),
		ctx:            ctx,
		cancel:         cancel,
		sessions:       make(map[string]*Session),
	}
}

// Start opens a session and runs the first submission. It returns once the
// run is settled or waits for a confirmation.
func (m *Manager) Start(ctx context.Context, owner string, draft models.ProductDraft, opts ...SubmitOption) (*Snapshot, error) {
	m.sweep()

	s := &Session{
		id:      uuid.NewString(),
		owner:   owner,
		mgr:     m,
		state:   StateIdle,
		changed: make(chan struct{}),
	}
	orchOpts := append([]Option{WithStateListener(s.onState), WithLogger(m.log)}, m.opts...)
	orch, err := New(m.search, m.create, s, s, s, m.translator, orchOpts...)
	if err != nil {
		return nil, err
	}
	s.orch = orch

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	if err := s.start(ctx, draft, opts); err != nil {
		return nil, err
	}
	return s.wait(ctx)
}

// Resubmit runs the session again with an edited draft.
func (m *Manager) Resubmit(ctx context.Context, id, owner string, draft models.ProductDraft, opts ...SubmitOption) (*Snapshot, error) {
	s, err := m.get(id, owner)
	if err != nil {
		return nil, err
	}
	if err := s.start(ctx, draft, opts); err != nil {
		return nil, err
	}
	return s.wait(ctx)
}

func (m *Manager) Get(_ context.Context, id, owner string) (*Snapshot, error) {
	s, err := m.get(id, owner)
	if err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

// Confirm answers a pending duplicate confirmation with "continue".
func (m *Manager) Confirm(ctx context.Context, id, owner string) (*Snapshot, error) {
	return m.decide(ctx, id, owner, DecisionConfirmed)
}

// Dismiss answers a pending duplicate confirmation with "cancel".
func (m *Manager) Dismiss(ctx context.Context, id, owner string) (*Snapshot, error) {
	return m.decide(ctx, id, owner, DecisionDismissed)
}

func (m *Manager) decide(ctx context.Context, id, owner string, d Decision) (*Snapshot, error) {
	s, err := m.get(id, owner)
	if err != nil {
		return nil, err
	}
	if err := s.decide(d); err != nil {
		return nil, err
	}
	return s.wait(ctx)
}

// Close cancels running submissions and waits for them to return.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) get(id, owner string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok || s.owner != owner || s.expired(m.now(), m.sessionTTL) {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) sweep() {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.expired(now, m.sessionTTL) {
			delete(m.sessions, id)
			m.log.Debugw("submission expired", "submission_id", id)
		}
	}
}

// Session is one draft moving through the orchestrator. It is the
// Confirmer, Notifier and Navigator of its own orchestrator.
type Session struct {
	id    string
	owner string
	mgr   *Manager
	orch  *Orchestrator

	mu            sync.Mutex
	state         State
	outcome       Outcome
	draft         models.ProductDraft
	candidates    []models.ProductCandidate
	total         int
	notifications []models.Notification
	route         *models.Route
	result        *models.SubmissionResult
	running       bool
	decision      chan Decision
	changed       chan struct{}
	updatedAt     time.Time
}

func (s *Session) start(ctx context.Context, draft models.ProductDraft, opts []SubmitOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrSubmissionInFlight
	}
	if s.state == StateSucceeded {
		return ErrSubmissionCompleted
	}

	s.running = true
	s.draft = draft
	s.outcome = ""
	s.candidates = []models.ProductCandidate{}
	s.total = 0
	s.notifications = nil
	s.route = nil
	s.result = nil
	s.updatedAt = s.mgr.now()

	runCtx, cancel := s.runContext(ctx)
	opts = append(opts, AsUser(s.owner))

	s.mgr.wg.Add(1)
	go func() {
		defer s.mgr.wg.Done()
		defer cancel()

		report, err := s.orch.Submit(runCtx, draft, opts...)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.running = false
		s.updatedAt = s.mgr.now()
		if err != nil {
			logctx.Warnw(runCtx, "submission rejected", "error", err)
		} else {
			s.outcome = report.Outcome
			s.candidates = report.Candidates
			s.total = report.Total
			s.result = report.Result
		}
		s.broadcastLocked()
	}()
	return nil
}

// runContext keeps the request's log fields but outlives the request.
func (s *Session) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = logctx.With(context.WithoutCancel(ctx), "submission_id", s.id)
	var cancel context.CancelFunc
	if s.mgr.runTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.mgr.runTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	stop := context.AfterFunc(s.mgr.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// wait blocks until the run settles or needs a decision.
func (s *Session) wait(ctx context.Context) (*Snapshot, error) {
	for {
		s.mu.Lock()
		if !s.running || s.decision != nil {
			snap := s.snapshotLocked()
			s.mu.Unlock()
			return snap, nil
		}
		changed := s.changed
		s.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return s.snapshot(), ctx.Err()
		}
	}
}

func (s *Session) decide(d Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.decision == nil {
		return ErrNotConfirming
	}
	s.decision <- d
	s.decision = nil
	s.updatedAt = s.mgr.now()
	return nil
}

func (s *Session) Confirm(ctx context.Context, candidates []models.ProductCandidate, total int) (Decision, error) {
	ch := make(chan Decision, 1)
	s.mu.Lock()
	s.candidates = candidates
	s.total = total
	s.decision = ch
	s.broadcastLocked()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.decision == ch {
			s.decision = nil
		}
		s.mu.Unlock()
	}()

	var timeout <-chan time.Time
	if s.mgr.confirmTimeout > 0 {
		timer := time.NewTimer(s.mgr.confirmTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case d := <-ch:
		return d, nil
	case <-timeout:
		return DecisionErrored, errConfirmTimeout
	case <-ctx.Done():
		return DecisionErrored, ctx.Err()
	}
}

func (s *Session) Success(_ context.Context, message string) {
	s.notify(models.NotificationSuccess, message)
}

func (s *Session) Error(_ context.Context, message string) {
	s.notify(models.NotificationError, message)
}

func (s *Session) notify(level models.NotificationLevel, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, models.Notification{Level: level, Message: message})
}

func (s *Session) Replace(_ context.Context, route models.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.route = &route
}

func (s *Session) onState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.updatedAt = s.mgr.now()
	s.broadcastLocked()
}

func (s *Session) broadcastLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ttl > 0 && !s.running && now.Sub(s.updatedAt) > ttl
}

func (s *Session) snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() *Snapshot {
	snap := &Snapshot{
		ID:            s.id,
		State:         s.state,
		Outcome:       s.outcome,
		Draft:         s.draft,
		Candidates:    append([]models.ProductCandidate{}, s.candidates...),
		Total:         s.total,
		Notifications: append([]models.Notification{}, s.notifications...),
		Result:        s.result,
		UpdatedAt:     s.updatedAt,
	}
	if s.route != nil {
		route := *s.route
		snap.Route = &route
	}
	return snap
}
