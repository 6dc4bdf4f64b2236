// Package submission sequences the recommend flow: duplicate search,
// optional confirmation, create, then notify and navigate.
package submission

import (
	"context"
	"errors"

	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type State string

const (
	StateIdle       State = "idle"
	StateSearching  State = "searching"
	StateConfirming State = "confirming"
	StateCreating   State = "creating"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Decision is the user's answer to the duplicate confirmation.
type Decision int

const (
	DecisionErrored Decision = iota
	DecisionConfirmed
	DecisionDismissed
)

func (d Decision) String() string {
	switch d {
	case DecisionConfirmed:
		return "confirmed"
	case DecisionDismissed:
		return "dismissed"
	default:
		return "errored"
	}
}

type Outcome string

const (
	OutcomeCreated            Outcome = "created"
	OutcomeCreateFailed       Outcome = "create_failed"
	OutcomeDismissed          Outcome = "dismissed"
	OutcomeConfirmationFailed Outcome = "confirmation_failed"
	OutcomeSearchFailed       Outcome = "search_failed"
)

const (
	MinimumScore = 20
	MaxResults   = 5
)

var (
	ErrSubmissionInFlight  = status.Error(codes.FailedPrecondition, "a submission is already in progress")
	ErrSubmissionCompleted = status.Error(codes.FailedPrecondition, "the product has already been recommended")
	ErrSearchUnavailable   = errors.New("duplicate search unavailable")
)

type SearchService interface {
	Search(ctx context.Context, query models.SearchQuery) (*models.SearchResult, error)
}

type CreateService interface {
	Create(ctx context.Context, payload models.ProductPayload) (*models.CreatedProduct, error)
}

// Confirmer asks the user whether to continue despite possible duplicates.
// A non-nil error is treated as DecisionErrored.
type Confirmer interface {
	Confirm(ctx context.Context, candidates []models.ProductCandidate, total int) (Decision, error)
}

type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

type Navigator interface {
	Replace(ctx context.Context, route models.Route)
}

type ErrorTranslator interface {
	Translate(err error) []models.FieldError
}

// Report describes how one Submit call ended.
type Report struct {
	Outcome    Outcome                   `json:"outcome"`
	State      State                     `json:"state"`
	Candidates []models.ProductCandidate `json:"candidates"`
	Total      int                       `json:"total"`
	Result     *models.SubmissionResult  `json:"result,omitempty"`
}
