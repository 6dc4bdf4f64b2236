package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"github.com/nguyentranbao-ct/product-hub/internal/submission"
)

type SubmissionController interface {
	Start(c echo.Context, req submitRequest) (startedSubmission, error)
	Resubmit(c echo.Context, req resubmitRequest) (*submission.Snapshot, error)
	Get(c echo.Context, req submissionRequest) (*submission.Snapshot, error)
	Confirm(c echo.Context, req submissionRequest) (*submission.Snapshot, error)
	Dismiss(c echo.Context, req submissionRequest) (*submission.Snapshot, error)
}

type submitRequest struct {
	Draft              models.ProductDraft `json:"draft"`
	UserID             string              `json:"-" jwt:"sub"`
	SkipDuplicateCheck bool                `json:"skip_duplicate_check"`
}

type resubmitRequest struct {
	Draft              models.ProductDraft `json:"draft"`
	ID                 string              `json:"-" param:"id" validate:"required"`
	UserID             string              `json:"-" jwt:"sub"`
	SkipDuplicateCheck bool                `json:"skip_duplicate_check"`
}

func submitOptions(skipDuplicateCheck bool) []submission.SubmitOption {
	if skipDuplicateCheck {
		return []submission.SubmitOption{submission.SkipDuplicateCheck()}
	}
	return nil
}

type submissionRequest struct {
	ID     string `json:"-" param:"id" validate:"required"`
	UserID string `json:"-" jwt:"sub"`
}

type startedSubmission struct {
	*submission.Snapshot
}

func (startedSubmission) HTTPStatus() int {
	return http.StatusCreated
}

type submissionController struct {
	manager *submission.Manager
}

func NewSubmissionController(manager *submission.Manager) SubmissionController {
	return &submissionController{manager: manager}
}

func (h *submissionController) Start(c echo.Context, req submitRequest) (startedSubmission, error) {
	snap, err := h.manager.Start(c.Request().Context(), req.UserID, req.Draft, submitOptions(req.SkipDuplicateCheck)...)
	if err != nil {
		return startedSubmission{}, err
	}
	return startedSubmission{snap}, nil
}

func (h *submissionController) Resubmit(c echo.Context, req resubmitRequest) (*submission.Snapshot, error) {
	return h.manager.Resubmit(c.Request().Context(), req.ID, req.UserID, req.Draft,
		submitOptions(req.SkipDuplicateCheck)...)
}

func (h *submissionController) Get(c echo.Context, req submissionRequest) (*submission.Snapshot, error) {
	return h.manager.Get(c.Request().Context(), req.ID, req.UserID)
}

func (h *submissionController) Confirm(c echo.Context, req submissionRequest) (*submission.Snapshot, error) {
	return h.manager.Confirm(c.Request().Context(), req.ID, req.UserID)
}

func (h *submissionController) Dismiss(c echo.Context, req submissionRequest) (*submission.Snapshot, error) {
	return h.manager.Dismiss(c.Request().Context(), req.ID, req.UserID)
}
